package tenant

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

// HintHeader lets a frontend served from another origin name its hospital.
const HintHeader = "X-Hospital-Subdomain"

// reserved labels never resolve to a hospital.
var reserved = map[string]bool{
	"www": true,
	"api": true,
}

// DefaultPublicPaths stay reachable for inactive hospitals.
var DefaultPublicPaths = []string{"/health", "/v1/public/"}

// Candidate returns the subdomain a request asks for, or "" for the
// root/global context. The hint header always wins over the host.
func Candidate(host, hint string) string {
	if h := hospital.NormalizeSubdomain(hint); h != "" {
		if reserved[h] {
			return ""
		}
		return h
	}
	return fromHost(host)
}

func fromHost(host string) string {
	host = hospital.NormalizeSubdomain(host)
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if net.ParseIP(strings.Trim(host, "[]")) != nil {
		return ""
	}

	labels := strings.Split(host, ".")
	if labels[len(labels)-1] == "localhost" {
		if len(labels) < 2 {
			return ""
		}
		return pick(labels[0])
	}
	if len(labels) < 3 {
		return ""
	}
	return pick(labels[0])
}

func pick(label string) string {
	if label == "" || reserved[label] {
		return ""
	}
	return label
}

// Resolution is what the resolver attaches to a request.
type Resolution struct {
	// Requested is the normalized candidate; "" means global context.
	Requested string
	Hospital  *hospital.Hospital
}

// Global is true when no hospital was asked for.
func (r Resolution) Global() bool { return r.Requested == "" }

// NotFound is true when a hospital was asked for but does not exist.
func (r Resolution) NotFound() bool { return r.Requested != "" && r.Hospital == nil }

type Resolver struct {
	Hospitals   hospital.Finder
	PublicPaths []string
}

func NewResolver(hospitals hospital.Finder, publicPaths []string) *Resolver {
	if len(publicPaths) == 0 {
		publicPaths = DefaultPublicPaths
	}
	return &Resolver{Hospitals: hospitals, PublicPaths: publicPaths}
}

// Resolve maps host/hint to a hospital. It returns hospital.ErrInactive
// (with the resolution filled) when the hospital is not active and path is
// not public.
func (r *Resolver) Resolve(ctx context.Context, host, hint, path string) (Resolution, error) {
	res := Resolution{Requested: Candidate(host, hint)}
	if res.Global() {
		return res, nil
	}

	h, err := r.Hospitals.FindBySubdomain(ctx, res.Requested)
	if errors.Is(err, hospital.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return res, err
	}
	res.Hospital = h

	if !h.IsActive() && !r.IsPublic(path) {
		return res, hospital.ErrInactive
	}
	return res, nil
}

// IsPublic matches exact paths, and prefixes for entries ending in "/".
func (r *Resolver) IsPublic(path string) bool {
	for _, p := range r.PublicPaths {
		if path == p || path == strings.TrimSuffix(p, "/") {
			return true
		}
		if strings.HasSuffix(p, "/") && strings.HasPrefix(path, p) {
			return true
		}
		if strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
