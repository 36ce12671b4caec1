package transport

import "net"

// NewMockMesh builds n Mesh values wired pairwise over net.Pipe, used by
// the in-process multi-party tests of the backend and circuit packages —
// the pure-Go analogue of
// demos-go/examples/ecdsa-2pc's mocknet.NewMockNetwork.
func NewMockMesh(n int) []*Mesh {
	meshes := make([]*Mesh, n)
	for i := 0; i < n; i++ {
		meshes[i] = &Mesh{id: i, n: n, peers: make(map[int]Conn, n-1)}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := net.Pipe()
			meshes[i].peers[j] = newFrameConn(a, &meshes[i].sentBytes, &meshes[i].recvBytes)
			meshes[j].peers[i] = newFrameConn(b, &meshes[j].sentBytes, &meshes[j].recvBytes)
		}
	}
	return meshes
}
