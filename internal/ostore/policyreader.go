package ostore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/model"
)

// Policy CSV columns, in order. A header row repeating the first column
// name is skipped.
const (
	colID = iota
	colName
	colStatus
	colAction
	colSrcZone
	colDstZone
	colSrcAddr
	colDstAddr
	colService
	colApplication
	colUser
	colURL
	colSrcNegate
	colDstNegate
	columnCount
)

var columnNames = []string{
	"id", "name", "status", "action",
	"src.zone", "dst.zone", "src.addr", "dst.addr",
	"svc", "app", "usr", "url",
	"src.negate", "dst.negate",
}

// AppDefaultToken is the service sentinel selecting the applications'
// intrinsic services.
const AppDefaultToken = "application-default"

// TokenError locates a token the resolver could not bind.
type TokenError struct {
	Row   int
	Field string
	Token string
}

func (e TokenError) String() string {
	return fmt.Sprintf("row %d: %s: unresolved %q", e.Row, e.Field, e.Token)
}

// FieldError locates a mandatory cell left empty.
type FieldError struct {
	Row   int
	Field string
}

func (e FieldError) String() string {
	return fmt.Sprintf("row %d: empty %s", e.Row, e.Field)
}

// LoaderStatus accumulates everything that went wrong while loading a
// policy. Rows with findings are skipped; loading continues.
type LoaderStatus struct {
	Rows         int
	Loaded       int
	Unresolved   []TokenError
	EmptyFields  []FieldError
	DuplicateIDs []int
	BadRows      []string
}

// OK reports whether every row loaded.
func (st *LoaderStatus) OK() bool {
	return len(st.Unresolved) == 0 && len(st.EmptyFields) == 0 &&
		len(st.DuplicateIDs) == 0 && len(st.BadRows) == 0
}

// Summary renders the findings, one line each.
func (st *LoaderStatus) Summary() []string {
	var out []string
	for _, e := range st.EmptyFields {
		out = append(out, e.String())
	}
	for _, e := range st.Unresolved {
		out = append(out, e.String())
	}
	for _, id := range st.DuplicateIDs {
		out = append(out, fmt.Sprintf("duplicate rule id %d", id))
	}
	out = append(out, st.BadRows...)
	return out
}

// PolicyReader builds fully resolved rules from policy CSV rows.
type PolicyReader struct {
	store *Store
	log   *logging.Logger
}

// NewPolicyReader builds a reader over the given store.
func NewPolicyReader(store *Store, log *logging.Logger) *PolicyReader {
	return &PolicyReader{store: store, log: log.WithComponent("loader")}
}

// LoadFile reads a policy CSV from disk into fw.
func (p *PolicyReader) LoadFile(path string, fw *model.Firewall) (*LoaderStatus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening policy: %w", err)
	}
	defer f.Close()
	return p.Load(f, fw)
}

// Load reads policy rows into fw. The reader tolerates rows with fewer
// trailing columns; every finding lands in the returned status.
func (p *PolicyReader) Load(r io.Reader, fw *model.Firewall) (*LoaderStatus, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	status := &LoaderStatus{}
	rowNum := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading policy: %w", err)
		}
		rowNum++
		if rowNum == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), columnNames[colID]) {
			continue
		}
		status.Rows++
		p.loadRow(record, rowNum, fw, status)
	}

	p.log.Info("policy loaded",
		"firewall", fw.Name(),
		"rows", status.Rows,
		"loaded", status.Loaded,
		"findings", len(status.Summary()))
	return status, nil
}

func (p *PolicyReader) loadRow(record []string, rowNum int, fw *model.Firewall, status *LoaderStatus) {
	cell := func(col int) string {
		if col < len(record) {
			return strings.TrimSpace(record[col])
		}
		return ""
	}
	tokens := func(col int) []string {
		raw := cell(col)
		if raw == "" {
			return nil
		}
		parts := strings.Split(raw, ";")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}

	ok := true
	missing := func(col int) {
		status.EmptyFields = append(status.EmptyFields, FieldError{Row: rowNum, Field: columnNames[col]})
		ok = false
	}
	for _, col := range []int{colID, colAction, colSrcZone, colDstZone, colSrcAddr, colDstAddr, colService} {
		if cell(col) == "" {
			missing(col)
		}
	}
	if !ok {
		return
	}

	id, err := strconv.Atoi(cell(colID))
	if err != nil || id <= 0 {
		status.BadRows = append(status.BadRows, fmt.Sprintf("row %d: bad rule id %q", rowNum, cell(colID)))
		return
	}
	action, okAction := model.ParseRuleAction(strings.ToLower(cell(colAction)))
	if !okAction {
		status.BadRows = append(status.BadRows, fmt.Sprintf("row %d: bad action %q", rowNum, cell(colAction)))
		return
	}
	ruleStatus, okStatus := model.ParseRuleStatus(strings.ToLower(cell(colStatus)))
	if !okStatus {
		status.BadRows = append(status.BadRows, fmt.Sprintf("row %d: bad status %q", rowNum, cell(colStatus)))
		return
	}

	unresolved := func(col int, toks []string) {
		for _, t := range toks {
			status.Unresolved = append(status.Unresolved, TokenError{Row: rowNum, Field: columnNames[col], Token: t})
		}
		if len(toks) > 0 {
			ok = false
		}
	}

	nw := fw.Network()
	srcZones := model.NewGroup[*model.SrcZone]("")
	for _, token := range tokens(colSrcZone) {
		zone, err := nw.Zones().SrcZone(token)
		if err != nil {
			unresolved(colSrcZone, []string{token})
			continue
		}
		srcZones.AddItem(zone)
	}
	dstZones := model.NewGroup[*model.DstZone]("")
	for _, token := range tokens(colDstZone) {
		zone, err := nw.Zones().DstZone(token)
		if err != nil {
			unresolved(colDstZone, []string{token})
			continue
		}
		dstZones.AddItem(zone)
	}

	ipModel := fw.IPModel()
	srcAddrs, bad := p.store.ResolveSrcAddresses(tokens(colSrcAddr), ipModel)
	unresolved(colSrcAddr, bad)
	dstAddrs, bad := p.store.ResolveDstAddresses(tokens(colDstAddr), ipModel)
	unresolved(colDstAddr, bad)

	appTokens := tokens(colApplication)
	if len(appTokens) == 0 {
		appTokens = []string{model.AnyName}
	}
	apps, bad := p.store.ResolveApplications(appTokens)
	unresolved(colApplication, bad)

	var services *model.ServiceGroup
	svcTokens := tokens(colService)
	if len(svcTokens) == 1 && strings.EqualFold(svcTokens[0], AppDefaultToken) {
		if cell(colApplication) == "" {
			status.BadRows = append(status.BadRows,
				fmt.Sprintf("row %d: %s without applications", rowNum, AppDefaultToken))
			return
		}
		services = apps.DefaultServices()
	} else {
		services, bad = p.store.ResolveServices(svcTokens)
		unresolved(colService, bad)
	}

	userTokens := tokens(colUser)
	if len(userTokens) == 0 {
		userTokens = []string{model.AnyName}
	}
	users, bad := p.store.ResolveUsers(userTokens)
	unresolved(colUser, bad)

	urlTokens := tokens(colURL)
	if len(urlTokens) == 0 {
		urlTokens = []string{model.AnyName}
	}
	urls, bad := p.store.ResolveURLs(urlTokens)
	unresolved(colURL, bad)

	if !ok {
		return
	}

	pred := model.NewPredicate(nw.Domains(), p.store.opts,
		model.Sources{Zones: srcZones, Addresses: srcAddrs, Negate: parseBool(cell(colSrcNegate))},
		model.Destinations{Zones: dstZones, Addresses: dstAddrs, Negate: parseBool(cell(colDstNegate))},
		services, apps, users, urls)

	if _, err := fw.AddRule(id, cell(colName), ruleStatus, action, pred); err != nil {
		var dup *model.DuplicateRuleIDError
		if errors.As(err, &dup) {
			status.DuplicateIDs = append(status.DuplicateIDs, id)
		} else {
			status.BadRows = append(status.BadRows, fmt.Sprintf("row %d: %v", rowNum, err))
		}
		return
	}
	status.Loaded++
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}
