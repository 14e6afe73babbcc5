// File: fdctx/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package fdctx tracks per-file-descriptor state (socket-ness,
// non-blocking mode, recv/send timeouts) that ioshim needs to implement
// do_io's retry-park-retry loop without re-probing the kernel on every
// call.
package fdctx
