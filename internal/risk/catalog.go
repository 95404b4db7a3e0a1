// Package risk classifies sockets against a fixed table of ports known to
// carry elevated risk and derives firewall remediation commands.
package risk

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvalidCatalog = errors.New("invalid risk catalog")

// Entry describes one risky well-known port.
type Entry struct {
	Port        uint16 `json:"port" yaml:"port"`
	Service     string `json:"service" yaml:"service"`
	Risk        string `json:"risk" yaml:"risk"`
	Remediation string `json:"remediation" yaml:"remediation"`
}

// Catalog is an immutable port -> Entry table. Build it once at startup
// and share the pointer; nothing can modify it afterwards.
type Catalog struct {
	entries map[uint16]Entry
}

var builtin = []Entry{
	{21, "FTP", "Unencrypted file transfer; credentials and data can be intercepted", "Disable FTP and use SFTP or FTPS instead"},
	{23, "Telnet", "Unencrypted remote shell; sessions are open to eavesdropping", "Disable Telnet and use SSH instead"},
	{135, "MS RPC", "Endpoint mapper frequently abused for remote code execution and lateral movement", "Block RPC from untrusted networks"},
	{139, "NetBIOS", "Legacy file sharing that leaks host and share information", "Disable NetBIOS over TCP/IP if not required"},
	{445, "SMB", "Common ransomware propagation vector", "Block SMB from untrusted networks, disable SMBv1 and keep hosts patched"},
	{1433, "SQL Server", "Frequent target of database attacks and credential brute-forcing", "Restrict access to trusted application hosts and never expose it publicly"},
	{3306, "MySQL", "Database exposed to network-wide credential attacks", "Bind to localhost or restrict access with a firewall"},
	{3389, "RDP", "Frequent target of brute-force attacks", "Restrict RDP to VPN or trusted hosts and enable Network Level Authentication"},
	{5432, "PostgreSQL", "Database exposed to network-wide credential attacks", "Bind to localhost or restrict access in pg_hba.conf and the firewall"},
	{5900, "VNC", "Remote desktop often deployed with weak or no authentication", "Tunnel VNC over SSH or VPN and require strong passwords"},
	{6379, "Redis", "Often runs without authentication; can be abused for remote code execution", "Bind to localhost and enable authentication"},
	{9200, "Elasticsearch", "HTTP API frequently exposed without authentication, leaking indexed data", "Enable security features and restrict access to trusted hosts"},
	{11211, "Memcached", "Unauthenticated cache abused for data exposure and UDP amplification", "Bind to localhost and disable UDP"},
	{27017, "MongoDB", "Frequently exposed without authentication, leaking databases", "Enable authentication and bind to trusted interfaces only"},
}

// DefaultCatalog returns the built-in table.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(builtin)
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog validates entries and copies them into a new Catalog.
// Duplicate ports and empty text fields are rejected.
func NewCatalog(entries []Entry) (*Catalog, error) {
	m := make(map[uint16]Entry, len(entries))
	for _, e := range entries {
		if err := validate(e); err != nil {
			return nil, err
		}
		if _, dup := m[e.Port]; dup {
			return nil, fmt.Errorf("%w: duplicate port %d", ErrInvalidCatalog, e.Port)
		}
		m[e.Port] = e
	}
	return &Catalog{entries: m}, nil
}

// Merge returns a new Catalog where overrides replace or extend c.
// c itself is left untouched.
func (c *Catalog) Merge(overrides []Entry) (*Catalog, error) {
	m := make(map[uint16]Entry, len(c.entries)+len(overrides))
	for k, v := range c.entries {
		m[k] = v
	}
	seen := map[uint16]bool{}
	for _, e := range overrides {
		if err := validate(e); err != nil {
			return nil, err
		}
		if seen[e.Port] {
			return nil, fmt.Errorf("%w: duplicate override for port %d", ErrInvalidCatalog, e.Port)
		}
		seen[e.Port] = true
		m[e.Port] = e
	}
	return &Catalog{entries: m}, nil
}

func validate(e Entry) error {
	if e.Port == 0 {
		return fmt.Errorf("%w: port 0", ErrInvalidCatalog)
	}
	if strings.TrimSpace(e.Service) == "" || strings.TrimSpace(e.Risk) == "" || strings.TrimSpace(e.Remediation) == "" {
		return fmt.Errorf("%w: port %d needs service, risk and remediation", ErrInvalidCatalog, e.Port)
	}
	return nil
}

// Lookup returns the entry for port, if any.
func (c *Catalog) Lookup(port uint16) (Entry, bool) {
	e, ok := c.entries[port]
	return e, ok
}

func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of the table sorted by port.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Port < out[j].Port })
	return out
}
