package sockets

// System returns the socket enumerator for the running OS.
func System() Enumerator {
	return systemEnumerator()
}

