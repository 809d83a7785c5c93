package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/miekg/dns"
)

type Rdataset struct {
	Type    uint16
	Class   uint16
	Covers  uint16
	TTL     uint32
	Records []dns.RR
}

type ZoneNode struct {
	Name      string
	Rdatasets []*Rdataset
}

// Zone keeps transferred records grouped by owner name, then by type, both
// in the order they were first seen. Duplicate rdata are stored once and an
// rdataset's TTL is the smallest TTL of its members. Only class IN records
// are kept.
type Zone struct {
	Origin string
	nodes  []*ZoneNode
	index  map[string]*ZoneNode
	count  int
}

func NewZone(origin string) *Zone {
	return &Zone{Origin: fqdn(origin), index: make(map[string]*ZoneNode)}
}

func (zone *Zone) Add(rr dns.RR) {
	header := rr.Header()
	if header.Class != dns.ClassINET {
		return
	}
	key := strings.ToLower(header.Name)
	node, ok := zone.index[key]
	if !ok {
		node = &ZoneNode{Name: header.Name}
		zone.index[key] = node
		zone.nodes = append(zone.nodes, node)
	}
	var covers uint16
	if rrsig, ok := rr.(*dns.RRSIG); ok {
		covers = rrsig.TypeCovered
	}
	var rdataset *Rdataset
	for _, candidate := range node.Rdatasets {
		if candidate.Type == header.Rrtype && candidate.Class == header.Class && candidate.Covers == covers {
			rdataset = candidate
			break
		}
	}
	if rdataset == nil {
		rdataset = &Rdataset{Type: header.Rrtype, Class: header.Class, Covers: covers, TTL: header.Ttl}
		node.Rdatasets = append(node.Rdatasets, rdataset)
	}
	for _, existing := range rdataset.Records {
		if dns.IsDuplicate(existing, rr) {
			return
		}
	}
	if header.Ttl < rdataset.TTL {
		rdataset.TTL = header.Ttl
	}
	rdataset.Records = append(rdataset.Records, rr)
	zone.count++
}

func (zone *Zone) Nodes() []*ZoneNode {
	return zone.nodes
}

func (zone *Zone) Len() int {
	return zone.count
}

// RelativeName returns name relative to the origin, "@" for the apex.
func (zone *Zone) RelativeName(name string) string {
	name = fqdn(name)
	lname, lorigin := strings.ToLower(name), strings.ToLower(zone.Origin)
	if lname == lorigin {
		return "@"
	}
	if strings.HasSuffix(lname, "."+lorigin) {
		return name[:len(name)-len(lorigin)-1]
	}
	return name
}

func (zone *Zone) Records() []ZoneRecord {
	records := make([]ZoneRecord, 0, zone.count)
	for _, node := range zone.nodes {
		owner := zone.RelativeName(node.Name)
		for _, rdataset := range node.Rdatasets {
			rrType := dns.TypeToString[rdataset.Type]
			for _, rr := range rdataset.Records {
				records = append(records, ZoneRecord{
					Owner: owner,
					TTL:   rdataset.TTL,
					Class: "IN",
					Type:  rrType,
					Value: rdataText(rr),
				})
			}
		}
	}
	return records
}

// WriteTo writes the zone in master file format.
func (zone *Zone) WriteTo(w io.Writer) (int64, error) {
	var written int64
	n, err := fmt.Fprintf(w, "$ORIGIN %s\n", zone.Origin)
	written += int64(n)
	if err != nil {
		return written, err
	}
	for _, node := range zone.nodes {
		for _, rdataset := range node.Rdatasets {
			for _, rr := range rdataset.Records {
				n, err := fmt.Fprintln(w, rr.String())
				written += int64(n)
				if err != nil {
					return written, err
				}
			}
		}
	}
	return written, nil
}
