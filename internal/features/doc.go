// Package features turns a URL string into the fixed-schema numeric vector
// consumed by the classifier.
//
// The schema is the contract between extraction, scaling and the trained
// forest: a Vector always has Width fields, in the order of the Field
// constants. Adding, removing or reordering fields invalidates every saved
// model, which the model store detects through the stored width.
//
// Extraction never fails. A URL that cannot be split into components simply
// yields empty components, and the fields derived from them are zero.
package features
