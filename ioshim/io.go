// File: ioshim/io.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The read/write/accept family, each a thin closure handed to DoIO,
// grounded on original_source/hook.cpp's accept/read/readv/recv/
// recvfrom/recvmsg/write/writev/send/sendto/sendmsg wrappers.

package ioshim

import (
	"golang.org/x/sys/unix"

	"github.com/lzz233/coroutine-lib/api"
	"github.com/lzz233/coroutine-lib/fdctx"
)

// Read mirrors read(2).
func Read(fd int, buf []byte) (int, error) {
	return DoIO(fd, api.DirRead, fdctx.RecvTimeout, func() (int, error) {
		return unix.Read(fd, buf)
	})
}

// Readv mirrors readv(2).
func Readv(fd int, iovs [][]byte) (int, error) {
	return DoIO(fd, api.DirRead, fdctx.RecvTimeout, func() (int, error) {
		return unix.Readv(fd, iovs)
	})
}

// Recv mirrors recv(2).
func Recv(fd int, buf []byte, flags int) (int, error) {
	return DoIO(fd, api.DirRead, fdctx.RecvTimeout, func() (int, error) {
		n, _, err := unix.Recvfrom(fd, buf, flags)
		return n, err
	})
}

// RecvFrom mirrors recvfrom(2), also returning the peer address.
func RecvFrom(fd int, buf []byte, flags int) (int, unix.Sockaddr, error) {
	var from unix.Sockaddr
	n, err := DoIO(fd, api.DirRead, fdctx.RecvTimeout, func() (int, error) {
		nn, f, e := unix.Recvfrom(fd, buf, flags)
		from = f
		return nn, e
	})
	return n, from, err
}

// RecvMsg mirrors recvmsg(2).
func RecvMsg(fd int, p, oob []byte, flags int) (n, oobn, recvFlags int, from unix.Sockaddr, err error) {
	n, err = DoIO(fd, api.DirRead, fdctx.RecvTimeout, func() (int, error) {
		nn, on, rf, f, e := unix.Recvmsg(fd, p, oob, flags)
		oobn, recvFlags, from = on, rf, f
		return nn, e
	})
	return n, oobn, recvFlags, from, err
}

// Write mirrors write(2).
func Write(fd int, buf []byte) (int, error) {
	return DoIO(fd, api.DirWrite, fdctx.SendTimeout, func() (int, error) {
		return unix.Write(fd, buf)
	})
}

// Writev mirrors writev(2).
func Writev(fd int, iovs [][]byte) (int, error) {
	return DoIO(fd, api.DirWrite, fdctx.SendTimeout, func() (int, error) {
		return unix.Writev(fd, iovs)
	})
}

// Send mirrors send(2). x/sys/unix has no arity that returns a partial
// count for a plain send, so a successful call reports the whole buffer
// written, matching the common case of a stream socket with room in its
// send buffer.
func Send(fd int, buf []byte, flags int) (int, error) {
	return DoIO(fd, api.DirWrite, fdctx.SendTimeout, func() (int, error) {
		if err := unix.Sendto(fd, buf, flags, nil); err != nil {
			return -1, err
		}
		return len(buf), nil
	})
}

// SendTo mirrors sendto(2).
func SendTo(fd int, buf []byte, flags int, to unix.Sockaddr) (int, error) {
	return DoIO(fd, api.DirWrite, fdctx.SendTimeout, func() (int, error) {
		if err := unix.Sendto(fd, buf, flags, to); err != nil {
			return -1, err
		}
		return len(buf), nil
	})
}

// SendMsg mirrors sendmsg(2).
func SendMsg(fd int, p, oob []byte, to unix.Sockaddr, flags int) (int, error) {
	return DoIO(fd, api.DirWrite, fdctx.SendTimeout, func() (int, error) {
		return unix.SendmsgN(fd, p, oob, to, flags)
	})
}

// Accept mirrors accept(2); a successfully accepted fd is registered in
// the fd table exactly like Socket does.
func Accept(fd int) (int, unix.Sockaddr, error) {
	var peer unix.Sockaddr
	newFd, err := DoIO(fd, api.DirRead, fdctx.RecvTimeout, func() (int, error) {
		nfd, s, e := unix.Accept(fd)
		peer = s
		if e != nil {
			return -1, e
		}
		return nfd, nil
	})
	if err != nil {
		return -1, nil, err
	}
	fdctx.Shared().Get(newFd, true)
	return newFd, peer, nil
}
