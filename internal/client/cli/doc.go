// Package cli provides the interactive gopanel admin console.
//
// It wires configuration, local storage, the selected backend, the auth
// store and the router, then runs a REPL. Each navigation goes through the
// router's guards, so protected pages bounce to the login page and come back
// after a successful login.
//
// Key features:
//   - Login / Signup / Logout with the session persisted between runs
//   - goto <path> to open any page of the route table
//   - list / create / update / delete on any table
//   - attach files to records and print presigned download URLs
//
// The console is started via App.Run(ctx), which blocks until the user exits.
package cli
