package panelhop

// Version is the current panelhop library version.
const Version = "1.0.0"
