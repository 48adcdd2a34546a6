// Package web is the browser control surface. It exposes the panel
// registry and the send operations as a small JSON API plus a static
// status page, for driving panels from phones and wall tablets on the
// same network.
package web
