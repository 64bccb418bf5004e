// Package mock provides an in-memory HTTP/2 origin for tests and
// emulation.
//
// Backend satisfies the backend interface but hands out H2Server
// streams instead of real sockets: every byte a client writes is fed
// straight into a server-role HTTP/2 multiplexer that reconstructs
// requests per stream identifier, invokes an application handler and
// buffers the encoded response for the client's next read.
package mock
