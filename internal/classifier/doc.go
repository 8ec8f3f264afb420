// Package classifier implements the random-forest model that turns a feature
// vector into a phishing/legitimate label with a confidence.
//
// A Model pairs a standard Scaler with a Forest. Trees are stored as arenas:
// each Tree is a flat []Node and children are referenced by index, so a
// trained forest is a plain value that can be serialized without pointers.
// A Node with Feature == -1 is a leaf whose Value is the weighted
// probability of the phishing class.
//
// Models are immutable once built by Train or NewModel and are safe for
// concurrent use.
package classifier
