// Package diagnostic provides coded errors, warnings and infos produced when
// schemas, transformer chains and configuration files are checked.
//
// Key capabilities:
//   - Unknown transformer names with "did you mean" suggestions
//   - Schema keys and leaves that cannot be parsed
//   - Configuration values that are out of range
package diagnostic
