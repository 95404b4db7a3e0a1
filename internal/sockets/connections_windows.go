//go:build windows

package sockets

import (
	"fmt"
	"net"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	iphlpapi           = windows.NewLazySystemDLL("iphlpapi.dll")
	procGetExtendedTcp = iphlpapi.NewProc("GetExtendedTcpTable")
	procGetExtendedUdp = iphlpapi.NewProc("GetExtendedUdpTable")
)

const (
	afInet                = 2
	afInet6               = 23
	tcpTableOwnerPIDAll   = 5
	udpTableOwnerPID      = 1
	errInsufficientBuffer = 122
)

type mibTCPRowOwnerPID struct {
	State      uint32
	LocalAddr  uint32
	LocalPort  uint32
	RemoteAddr uint32
	RemotePort uint32
	OwningPID  uint32
}

type mibTCP6RowOwnerPID struct {
	LocalAddr     [16]byte
	LocalScopeID  uint32
	LocalPort     uint32
	RemoteAddr    [16]byte
	RemoteScopeID uint32
	RemotePort    uint32
	State         uint32
	OwningPID     uint32
}

type mibUDPRowOwnerPID struct {
	LocalAddr uint32
	LocalPort uint32
	OwningPID uint32
}

type mibUDP6RowOwnerPID struct {
	LocalAddr    [16]byte
	LocalScopeID uint32
	LocalPort    uint32
	OwningPID    uint32
}

type iphlpEnumerator struct{}

func systemEnumerator() Enumerator {
	return iphlpEnumerator{}
}

func (iphlpEnumerator) Enumerate() ([]Raw, error) {
	names := map[uint32]string{}
	var raws []Raw

	tcp4, err := extendedTable(procGetExtendedTcp, afInet, tcpTableOwnerPIDAll)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnumerationUnavailable, err)
	}
	forEachRow(tcp4, func(p unsafe.Pointer) {
		row := (*mibTCPRowOwnerPID)(p)
		raws = append(raws, Raw{
			Type:     SockStream,
			Local:    iphlpEndpoint(ipv4FromDWORD(row.LocalAddr), ntohs(row.LocalPort)),
			Remote:   iphlpEndpoint(ipv4FromDWORD(row.RemoteAddr), ntohs(row.RemotePort)),
			Status:   mibTCPState(row.State),
			PID:      int32(row.OwningPID),
			ProcName: processName(names, row.OwningPID),
		})
	}, unsafe.Sizeof(mibTCPRowOwnerPID{}))

	// IPv6 may be disabled; its tables are best-effort.
	if tcp6, err := extendedTable(procGetExtendedTcp, afInet6, tcpTableOwnerPIDAll); err == nil {
		forEachRow(tcp6, func(p unsafe.Pointer) {
			row := (*mibTCP6RowOwnerPID)(p)
			raws = append(raws, Raw{
				Type:     SockStream,
				Local:    iphlpEndpoint(net.IP(row.LocalAddr[:]).String(), ntohs(row.LocalPort)),
				Remote:   iphlpEndpoint(net.IP(row.RemoteAddr[:]).String(), ntohs(row.RemotePort)),
				Status:   mibTCPState(row.State),
				PID:      int32(row.OwningPID),
				ProcName: processName(names, row.OwningPID),
			})
		}, unsafe.Sizeof(mibTCP6RowOwnerPID{}))
	}

	udp4, err := extendedTable(procGetExtendedUdp, afInet, udpTableOwnerPID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnumerationUnavailable, err)
	}
	forEachRow(udp4, func(p unsafe.Pointer) {
		row := (*mibUDPRowOwnerPID)(p)
		raws = append(raws, Raw{
			Type:     SockDgram,
			Local:    iphlpEndpoint(ipv4FromDWORD(row.LocalAddr), ntohs(row.LocalPort)),
			PID:      int32(row.OwningPID),
			ProcName: processName(names, row.OwningPID),
		})
	}, unsafe.Sizeof(mibUDPRowOwnerPID{}))

	if udp6, err := extendedTable(procGetExtendedUdp, afInet6, udpTableOwnerPID); err == nil {
		forEachRow(udp6, func(p unsafe.Pointer) {
			row := (*mibUDP6RowOwnerPID)(p)
			raws = append(raws, Raw{
				Type:     SockDgram,
				Local:    iphlpEndpoint(net.IP(row.LocalAddr[:]).String(), ntohs(row.LocalPort)),
				PID:      int32(row.OwningPID),
				ProcName: processName(names, row.OwningPID),
			})
		}, unsafe.Sizeof(mibUDP6RowOwnerPID{}))
	}

	return raws, nil
}

// extendedTable calls GetExtendedTcpTable/GetExtendedUdpTable twice: once
// for the size, once for the data.
func extendedTable(proc *windows.LazyProc, family, class uint32) ([]byte, error) {
	var size uint32
	r0, _, _ := proc.Call(0, uintptr(unsafe.Pointer(&size)), 0, uintptr(family), uintptr(class), 0)
	if r0 != errInsufficientBuffer && r0 != 0 {
		return nil, fmt.Errorf("%s size query failed: %d", proc.Name, r0)
	}
	if size == 0 {
		return nil, fmt.Errorf("%s returned size 0", proc.Name)
	}

	buf := make([]byte, size)
	r0, _, e1 := proc.Call(uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)), 0, uintptr(family), uintptr(class), 0)
	if r0 != 0 {
		return nil, fmt.Errorf("%s failed: %v (code=%d)", proc.Name, e1, r0)
	}
	return buf, nil
}

func forEachRow(buf []byte, fn func(unsafe.Pointer), rowSize uintptr) {
	if len(buf) < 4 {
		return
	}
	n := *(*uint32)(unsafe.Pointer(&buf[0]))
	for i := uint32(0); i < n; i++ {
		off := 4 + uintptr(i)*rowSize
		if off+rowSize > uintptr(len(buf)) {
			return
		}
		fn(unsafe.Pointer(&buf[off]))
	}
}

// processName resolves the image name of pid, caching per enumeration.
// Access to system processes is usually denied; those stay unnamed.
func processName(cache map[uint32]string, pid uint32) string {
	if pid == 0 {
		return ""
	}
	if name, ok := cache[pid]; ok {
		return name
	}
	name := ""
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err == nil {
		buf := make([]uint16, windows.MAX_PATH)
		sz := uint32(len(buf))
		if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &sz); err == nil {
			name = filepath.Base(windows.UTF16ToString(buf[:sz]))
		}
		windows.CloseHandle(h)
	}
	cache[pid] = name
	return name
}
