// Package fqdn resolves fully qualified domain names used by address
// objects into address literals, with a persistent cache so a policy
// can be re-analyzed offline.
package fqdn

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
	_ "modernc.org/sqlite"

	"grimm.is/palisade/internal/clock"
	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/validation"
)

// cacheTTL is how long resolved addresses stay valid.
const cacheTTL = 24 * time.Hour

// Resolver answers FQDN lookups from its cache first, then from the
// configured DNS server. In offline mode cache misses fail.
type Resolver struct {
	db      *sql.DB
	client  *dns.Client
	server  string
	offline bool
	log     *logging.Logger
}

// New opens (or creates) the cache at cachePath. An empty cachePath
// keeps the cache in memory for the process lifetime.
func New(cachePath, server string, offline bool, log *logging.Logger) (*Resolver, error) {
	dsn := cachePath
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening fqdn cache: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS fqdn_cache (
		name    TEXT PRIMARY KEY,
		addrs   TEXT NOT NULL,
		expires INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing fqdn cache: %w", err)
	}
	return &Resolver{
		db:      db,
		client:  &dns.Client{Timeout: 5 * time.Second},
		server:  server,
		offline: offline,
		log:     log.WithComponent("fqdn"),
	}, nil
}

// Close releases the cache.
func (r *Resolver) Close() error { return r.db.Close() }

// Lookup returns the address literals of name.
func (r *Resolver) Lookup(name string) ([]string, error) {
	if err := validation.ValidateFQDN(name); err != nil {
		return nil, err
	}
	key := strings.ToLower(strings.TrimSuffix(name, "."))

	if addrs, ok := r.cached(key); ok {
		return addrs, nil
	}
	if r.offline {
		return nil, fmt.Errorf("offline: %q not in fqdn cache", name)
	}

	addrs, err := r.query(key)
	if err != nil {
		return nil, err
	}
	if err := r.storeCache(key, addrs); err != nil {
		r.log.Warn("fqdn cache write failed", "name", key, "error", err)
	}
	return addrs, nil
}

func (r *Resolver) cached(name string) ([]string, bool) {
	var joined string
	var expires int64
	err := r.db.QueryRow(
		`SELECT addrs, expires FROM fqdn_cache WHERE name = ?`, name,
	).Scan(&joined, &expires)
	if err != nil {
		return nil, false
	}
	if clock.Now().Unix() > expires {
		return nil, false
	}
	return strings.Split(joined, ","), true
}

func (r *Resolver) storeCache(name string, addrs []string) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO fqdn_cache (name, addrs, expires) VALUES (?, ?, ?)`,
		name, strings.Join(addrs, ","), clock.Now().Add(cacheTTL).Unix(),
	)
	return err
}

func (r *Resolver) query(name string) ([]string, error) {
	var addrs []string
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(name), qtype)
		m.RecursionDesired = true

		resp, _, err := r.client.Exchange(m, r.server)
		if err != nil {
			return nil, fmt.Errorf("querying %s: %w", r.server, err)
		}
		if resp.Rcode != dns.RcodeSuccess {
			continue
		}
		for _, rr := range resp.Answer {
			switch a := rr.(type) {
			case *dns.A:
				addrs = append(addrs, a.A.String())
			case *dns.AAAA:
				addrs = append(addrs, a.AAAA.String())
			}
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%q did not resolve", name)
	}
	r.log.Debug("resolved", "name", name, "addresses", len(addrs))
	return addrs, nil
}
