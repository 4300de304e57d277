// Package fileops provides path validation and directory helpers for the
// local repository workspace.
//
// Clone destinations live under the user's home directory and are recreated
// destructively before every clone, so every path that reaches a destructive
// operation goes through validation first:
//
//  1. ValidatePathSecurity() - rejects traversal sequences and system
//     directories
//  2. ExpandPath() - resolves "~/" against the user's home
//  3. RecreateDir() - the one sanctioned destructive operation, only after
//     the above
package fileops
