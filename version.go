package savezy

// Version is the current savezy release.
const Version = "0.1.0"
