// Package match ranks registered names by similarity to an unknown one so
// that diagnostics can say "did you mean".
//
// Key functions:
//   - Normalize: folds case and separators ("user_schema" == "UserSchema")
//   - Distance: rune-based edit distance
//   - Suggest: closest known names above a similarity threshold
package match
