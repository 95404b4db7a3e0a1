package risk

import (
	"fmt"

	"github.com/pratik-anurag/openport/internal/logging"
	"github.com/pratik-anurag/openport/internal/model"
)

// Classifier annotates records using a Catalog. It holds no mutable state.
type Classifier struct {
	catalog *Catalog
	log     *logging.Logger
}

// NewClassifier returns a classifier over catalog. log may be nil.
func NewClassifier(catalog *Catalog, log *logging.Logger) *Classifier {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Classifier{catalog: catalog, log: log.WithComponent("classifier")}
}

// Classify keys exclusively on the local port; the remote port is never
// consulted.
func (c *Classifier) Classify(rec model.ConnectionRecord, family model.OSFamily) model.AnnotatedRecord {
	out := model.AnnotatedRecord{
		ConnectionRecord: rec,
		Security:         model.Safe(),
		ServiceName:      model.UnknownService,
		Remediation:      model.NoActionNeeded,
		FirewallCommand:  model.NoFirewallCommand,
	}

	port, ok := rec.LocalPort.Value()
	if !ok {
		return out
	}
	entry, ok := c.catalog.Lookup(port)
	if !ok {
		return out
	}

	out.Security = model.Risky(entry.Risk)
	out.ServiceName = entry.Service
	out.Remediation = entry.Remediation
	out.FirewallCommand = FirewallCommand(port, rec.Protocol, family)

	c.log.Warn("risky port detected",
		"port", port,
		"protocol", string(rec.Protocol),
		"service", entry.Service,
		"pid", rec.PID.String(),
	)
	return out
}

// ClassifyAll classifies records in order.
func (c *Classifier) ClassifyAll(recs []model.ConnectionRecord, family model.OSFamily) []model.AnnotatedRecord {
	out := make([]model.AnnotatedRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, c.Classify(r, family))
	}
	return out
}

// FirewallCommand renders a ready-to-copy inbound block rule for the host's
// firewall dialect. It never runs anything.
func FirewallCommand(port uint16, proto model.Protocol, family model.OSFamily) string {
	switch family {
	case model.FamilyWindows:
		return fmt.Sprintf(`netsh advfirewall firewall add rule name="Block Port %d" dir=in action=block protocol=%s localport=%d`,
			port, proto, port)
	case model.FamilyLinux:
		return fmt.Sprintf("sudo ufw deny %d/%s", port, proto.Lower())
	default:
		return model.ManualFirewall
	}
}
