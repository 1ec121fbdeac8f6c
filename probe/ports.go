package probe

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"
)

// topPorts is the fixed sweep set. Connect checks only, no banner grabs.
var topPorts = map[int]string{
	21:   "FTP",
	22:   "SSH",
	25:   "SMTP",
	53:   "DNS",
	80:   "HTTP",
	443:  "HTTPS",
	3306: "MySQL",
	3389: "RDP",
	8080: "HTTP-Alt",
	8443: "HTTPS-Alt",
}

// OpenPort - One reachable TCP port
type OpenPort struct {
	Port    int    `json:"port"`
	Service string `json:"service"`
}

// PortReport - Payload of the ports probe
type PortReport struct {
	OpenPorts    []OpenPort `json:"open_ports"`
	ScannedPorts []int      `json:"scanned_ports"`
}

type portProbe struct {
	timeout time.Duration
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewPorts creates the TCP port sweep probe.
func NewPorts(cfg Config) Probe {
	dialer := &net.Dialer{}
	return &portProbe{
		timeout: time.Duration(cfg.PortTimeout) * time.Second,
		dial:    dialer.DialContext,
	}
}

func (p *portProbe) Name() string { return "ports" }

func (p *portProbe) Run(ctx context.Context, target string) (any, error) {
	report := &PortReport{
		OpenPorts:    []OpenPort{},
		ScannedPorts: make([]int, 0, len(topPorts)),
	}
	for port := range topPorts {
		report.ScannedPorts = append(report.ScannedPorts, port)
	}
	sort.Ints(report.ScannedPorts)

	wg := &sync.WaitGroup{}
	mu := &sync.Mutex{}

	for port, service := range topPorts {
		wg.Add(1)
		go func(port int, service string) {
			defer wg.Done()
			if p.checkPort(ctx, target, port) {
				mu.Lock()
				report.OpenPorts = append(report.OpenPorts, OpenPort{Port: port, Service: service})
				mu.Unlock()
			}
		}(port, service)
	}
	wg.Wait()

	sort.Slice(report.OpenPorts, func(i, j int) bool {
		return report.OpenPorts[i].Port < report.OpenPorts[j].Port
	})
	return report, nil
}

func (p *portProbe) checkPort(ctx context.Context, target string, port int) bool {
	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dial(dialCtx, "tcp", net.JoinHostPort(target, fmt.Sprintf("%d", port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
