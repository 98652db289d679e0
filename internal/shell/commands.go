package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"grimm.is/palisade/internal/model"
	"grimm.is/palisade/internal/ostore"
)

func (s *Shell) execFw(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fw <create|delete|select|copy|list|info|load|show|check> ...")
	}
	positional, flags, err := s.parseFlags(args[1:])
	if err != nil {
		return err
	}

	switch args[0] {
	case "create":
		return s.fwCreate(positional, flags)
	case "delete":
		return s.fwDelete(positional)
	case "select":
		return s.fwSelect(positional)
	case "copy":
		return s.fwCopy(positional)
	case "list":
		return s.fwList()
	case "info":
		return s.fwInfo(flags)
	case "load":
		return s.fwLoad(positional, flags)
	case "show":
		return s.fwShow(positional, flags)
	case "check":
		return s.fwCheck(positional, flags)
	default:
		return fmt.Errorf("unknown fw command %q", args[0])
	}
}

func (s *Shell) fwCreate(args []string, flags *cmdFlags) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: fw create <name> [-ip4|-ip6|-ip64]")
	}
	ipModel := s.settings.IPAddressModel()
	if flags.ipModel != nil {
		ipModel = *flags.ipModel
	}
	fw, err := s.nw.AddFirewall(args[0], ipModel)
	if err != nil {
		return err
	}
	s.current = fw
	s.log.Audit("create", "firewall", map[string]any{"name": args[0], "model": ipModel.String()})
	fmt.Fprintf(s.out, "firewall %s created (%s)\n", fw.Name(), ipModel)
	return nil
}

func (s *Shell) fwDelete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: fw delete <name>")
	}
	if err := s.nw.DeleteFirewall(args[0]); err != nil {
		return err
	}
	if s.current != nil && strings.EqualFold(s.current.Name(), args[0]) {
		s.current = nil
	}
	s.log.Audit("delete", "firewall", map[string]any{"name": args[0]})
	fmt.Fprintf(s.out, "firewall %s deleted\n", args[0])
	return nil
}

func (s *Shell) fwSelect(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: fw select <name>")
	}
	fw, err := s.nw.GetFirewall(args[0])
	if err != nil {
		return err
	}
	s.current = fw
	return nil
}

func (s *Shell) fwCopy(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: fw copy <src> <dst>")
	}
	if _, err := s.nw.CopyFirewall(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "firewall %s copied to %s\n", args[0], args[1])
	return nil
}

func (s *Shell) fwList() error {
	names := s.nw.FirewallNames()
	if len(names) == 0 {
		fmt.Fprintln(s.out, "no firewalls")
		return nil
	}
	t := model.NewTable([]string{"name", "model", "rules", "allowed/denied"}, nil)
	for _, name := range names {
		fw, err := s.nw.GetFirewall(name)
		if err != nil {
			return err
		}
		counters := fw.Rules().GetCounters()
		row := t.AddRow()
		row.Cell().Append(fw.Name())
		row.Cell().Append(fw.IPModel().String())
		row.Cell().Append(fmt.Sprint(fw.Rules().Len()))
		row.Cell().Append(counters.String())
	}
	return t.Render(s.out, s.interrupt)
}

func (s *Shell) fwInfo(flags *cmdFlags) error {
	fw, err := s.needFirewall()
	if err != nil {
		return err
	}
	w, closeFn, err := s.writer(flags)
	if err != nil {
		return err
	}
	defer closeFn()
	return fw.Info().Render(w, s.interrupt)
}

func (s *Shell) fwLoad(args []string, flags *cmdFlags) error {
	fw, err := s.needFirewall()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: fw load <policy.csv> [-objects <catalog.toml>]")
	}
	if flags.objects != "" {
		if err := s.store.LoadCatalog(flags.objects); err != nil {
			return err
		}
	}
	reader := ostore.NewPolicyReader(s.store, s.log)
	status, err := reader.LoadFile(args[0], fw)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%d rows, %d rules loaded\n", status.Rows, status.Loaded)
	for _, line := range status.Summary() {
		fmt.Fprintf(s.out, "  %s\n", line)
	}
	s.log.Audit("load", "policy", map[string]any{
		"firewall": fw.Name(), "file": args[0], "loaded": status.Loaded,
	})
	return nil
}

func (s *Shell) fwShow(args []string, flags *cmdFlags) error {
	fw, err := s.needFirewall()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: fw show rules|rule <id>|addr|svc|app|usr|url")
	}
	w, closeFn, err := s.writer(flags)
	if err != nil {
		return err
	}
	defer closeFn()

	switch args[0] {
	case "rules":
		opts := fw.MakeOutputOptions(flags.names || s.settings.ShowNames)
		list := fw.Rules().FilterZonePair(s.doms.Engine(), flags.zones)
		return list.CreateTable(opts).Render(w, s.interrupt)
	case "rule":
		if len(args) != 2 {
			return fmt.Errorf("usage: fw show rule <id>")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad rule id %q", args[1])
		}
		rule, err := fw.GetRule(id)
		if err != nil {
			return err
		}
		opts := fw.MakeOutputOptions(true)
		return rule.CreateTable(opts).Render(w, s.interrupt)
	case "addr":
		return s.showCatalog(w, ostore.CatAddresses)
	case "svc":
		return s.showCatalog(w, ostore.CatServices)
	case "app":
		return s.showCatalog(w, ostore.CatApplications)
	case "usr":
		return s.showCatalog(w, ostore.CatUsers)
	case "url":
		return s.showCatalog(w, ostore.CatURLs)
	default:
		return fmt.Errorf("unknown fw show target %q", args[0])
	}
}

func (s *Shell) showCatalog(w io.Writer, cat ostore.Category) error {
	names := s.store.Names(cat)
	t := model.NewTable([]string{string(cat)}, nil)
	for _, name := range names {
		t.AddRow().Cell().Append(name)
	}
	return t.Render(w, s.interrupt)
}

func (s *Shell) fwCheck(args []string, flags *cmdFlags) error {
	fw, err := s.needFirewall()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: fw check anomaly|symmetry|deny|any|addr|svc|app|equivalence|packet ...")
	}
	w, closeFn, err := s.writer(flags)
	if err != nil {
		return err
	}
	defer closeFn()

	switch args[0] {
	case "anomaly":
		return s.checkAnomaly(w, fw, flags)
	case "symmetry":
		return s.checkSymmetry(w, fw, flags)
	case "deny":
		analyzer := model.NewAnalyzer(fw)
		return s.renderRules(w, fw, analyzer.CheckDeny(), flags)
	case "any":
		return s.checkAny(w, fw, args[1:], flags)
	case "addr":
		return s.checkAddr(w, fw, args[1:], flags)
	case "svc":
		return s.checkSvc(w, fw, args[1:], flags)
	case "app":
		return s.checkApp(w, fw, args[1:], flags)
	case "equivalence":
		return s.checkEquivalence(w, fw, args[1:])
	case "packet":
		return s.checkPacket(w, fw, args[1:])
	default:
		return fmt.Errorf("unknown fw check %q", args[0])
	}
}

// consoleProgress prints the anomaly pass ticks: a dot per rule, "+"
// every ten, "*" every hundred.
type consoleProgress struct{ w io.Writer }

func (p consoleProgress) Tick(n int) {
	switch {
	case n%100 == 0:
		fmt.Fprint(p.w, "*")
	case n%10 == 0:
		fmt.Fprint(p.w, "+")
	default:
		fmt.Fprint(p.w, ".")
	}
}

func (p consoleProgress) Done() { fmt.Fprintln(p.w) }

func (s *Shell) checkAnomaly(w io.Writer, fw *model.Firewall, flags *cmdFlags) error {
	analyzer := model.NewAnalyzer(fw)
	analyzer.SetProgress(consoleProgress{w: s.out})
	report, err := analyzer.CheckAnomaly(s.interrupt)
	if err != nil {
		return err
	}
	items := report.Items
	if flags.zones != nil {
		e := s.doms.Engine()
		var kept []*model.RuleAnomaly
		for _, item := range items {
			pair := model.NewRuleList(item.Rule).FilterZonePair(e, flags.zones)
			if pair.Len() > 0 {
				kept = append(kept, item)
			}
		}
		items = kept
	}
	filtered := &model.RuleAnomalies{Items: items, MissingDenyAll: report.MissingDenyAll}
	if err := filtered.CreateTable(fw.Rules().HaveNames()).Render(w, s.interrupt); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d anomalies in %d rules\n", len(items), analyzer.ACL().Len())
	if report.MissingDenyAll {
		fmt.Fprintln(w, "note: the policy does not end with a deny-all rule; some traffic is unclassified")
	}
	return nil
}

func (s *Shell) checkSymmetry(w io.Writer, fw *model.Firewall, flags *cmdFlags) error {
	analyzer := model.NewAnalyzer(fw)
	pairs, err := analyzer.CheckSymmetry(flags.strict, s.interrupt)
	if err != nil {
		return err
	}
	t := model.NewTable([]string{"rule", "symmetrical rule"}, nil)
	for _, pair := range pairs {
		row := t.AddRow()
		row.Cell().Append(fmt.Sprint(pair.First.ID()))
		row.Cell().Append(fmt.Sprint(pair.Second.ID()))
	}
	if err := t.Render(w, s.interrupt); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d symmetrical pairs\n", len(pairs))
	return nil
}

func (s *Shell) checkAny(w io.Writer, fw *model.Firewall, tokens []string, flags *cmdFlags) error {
	if len(tokens) == 0 {
		return fmt.Errorf("usage: fw check any <dst-addr>...")
	}
	dst, unresolved := s.store.ResolveDstAddresses(tokens, fw.IPModel())
	if len(unresolved) > 0 {
		return fmt.Errorf("unresolved tokens: %s", strings.Join(unresolved, ", "))
	}
	analyzer := model.NewAnalyzer(fw)
	return s.renderRules(w, fw, analyzer.CheckAny(dst), flags)
}

func (s *Shell) checkAddr(w io.Writer, fw *model.Firewall, tokens []string, flags *cmdFlags) error {
	if len(tokens) == 0 {
		return fmt.Errorf("usage: fw check addr <token>... [-any]")
	}
	e := s.doms.Engine()
	list := fw.ACL()
	src, unresolvedSrc := s.store.ResolveSrcAddresses(tokens, fw.IPModel())
	dst, unresolvedDst := s.store.ResolveDstAddresses(tokens, fw.IPModel())
	if len(unresolvedSrc) > 0 || len(unresolvedDst) > 0 {
		return fmt.Errorf("unresolved tokens: %s", strings.Join(append(unresolvedSrc, unresolvedDst...), ", "))
	}
	matched := list.Filter(func(r *model.Rule) bool {
		pred := r.Predicate()
		srcHit := e.Subset(src.MakeBdd(e), pred.SrcAddresses().MakeBdd(e))
		dstHit := e.Subset(dst.MakeBdd(e), pred.DstAddresses().MakeBdd(e))
		if !flags.showAny {
			srcHit = srcHit && !e.IsTrue(pred.SrcAddresses().MakeBdd(e))
			dstHit = dstHit && !e.IsTrue(pred.DstAddresses().MakeBdd(e))
		}
		return srcHit || dstHit
	})
	return s.renderRules(w, fw, matched, flags)
}

func (s *Shell) checkSvc(w io.Writer, fw *model.Firewall, tokens []string, flags *cmdFlags) error {
	if len(tokens) == 0 {
		return fmt.Errorf("usage: fw check svc <token>... [-any]")
	}
	services, unresolved := s.store.ResolveServices(tokens)
	if len(unresolved) > 0 {
		return fmt.Errorf("unresolved tokens: %s", strings.Join(unresolved, ", "))
	}
	e := s.doms.Engine()
	list := fw.ACL().FilterServices(e, services)
	if !flags.showAny {
		list = list.Filter(func(r *model.Rule) bool {
			return !r.Predicate().Services().IsAnyServices(e)
		})
	}
	return s.renderRules(w, fw, list, flags)
}

func (s *Shell) checkApp(w io.Writer, fw *model.Firewall, tokens []string, flags *cmdFlags) error {
	if len(tokens) == 0 {
		return fmt.Errorf("usage: fw check app <token>... [-svc <token;token>]")
	}
	apps, unresolved := s.store.ResolveApplications(tokens)
	if len(unresolved) > 0 {
		return fmt.Errorf("unresolved tokens: %s", strings.Join(unresolved, ", "))
	}
	var services *model.ServiceGroup
	if len(flags.svc) > 0 {
		var bad []string
		services, bad = s.store.ResolveServices(flags.svc)
		if len(bad) > 0 {
			return fmt.Errorf("unresolved tokens: %s", strings.Join(bad, ", "))
		}
	}
	list := fw.ACL().FilterApplications(s.doms.Engine(), apps, services)
	return s.renderRules(w, fw, list, flags)
}

func (s *Shell) checkEquivalence(w io.Writer, fw *model.Firewall, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: fw check equivalence <firewall>")
	}
	other, err := s.nw.GetFirewall(args[0])
	if err != nil {
		return err
	}
	rel := model.ComparePolicies(s.doms.Engine(), fw.ACL(), other.ACL())
	fmt.Fprintf(w, "allowed: %s\ndenied:  %s\n", rel.Allowed, rel.Denied)
	if rel.Allowed == model.RelEqual && rel.Denied == model.RelEqual {
		fmt.Fprintf(w, "%s and %s admit exactly the same traffic\n", fw.Name(), other.Name())
	}
	return nil
}

func (s *Shell) checkPacket(w io.Writer, fw *model.Firewall, args []string) error {
	if len(args) < 5 {
		return fmt.Errorf("usage: fw check packet <src-zone|-> <src-addr> <dst-zone|-> <dst-addr> <svc|-> [app] [usr]")
	}

	var srcZone *model.SrcZone
	if args[0] != "-" {
		z, err := s.nw.Zones().SrcZone(args[0])
		if err != nil {
			return err
		}
		srcZone = z
	}
	srcAddrs, unresolved := s.store.ResolveSrcAddresses(strings.Split(args[1], ";"), fw.IPModel())
	if len(unresolved) > 0 {
		return fmt.Errorf("unresolved tokens: %s", strings.Join(unresolved, ", "))
	}
	var dstZone *model.DstZone
	if args[2] != "-" {
		z, err := s.nw.Zones().DstZone(args[2])
		if err != nil {
			return err
		}
		dstZone = z
	}
	dstAddrs, unresolved := s.store.ResolveDstAddresses(strings.Split(args[3], ";"), fw.IPModel())
	if len(unresolved) > 0 {
		return fmt.Errorf("unresolved tokens: %s", strings.Join(unresolved, ", "))
	}
	svcTokens := []string{model.AnyName}
	if args[4] != "-" {
		svcTokens = strings.Split(args[4], ";")
	}
	services, unresolved := s.store.ResolveServices(svcTokens)
	if len(unresolved) > 0 {
		return fmt.Errorf("unresolved tokens: %s", strings.Join(unresolved, ", "))
	}
	var apps *model.ApplicationGroup
	if len(args) > 5 && args[5] != "-" {
		var bad []string
		apps, bad = s.store.ResolveApplications(strings.Split(args[5], ";"))
		if len(bad) > 0 {
			return fmt.Errorf("unresolved tokens: %s", strings.Join(bad, ", "))
		}
	}
	var users *model.UserGroup
	if len(args) > 6 && args[6] != "-" {
		var bad []string
		users, bad = s.store.ResolveUsers(strings.Split(args[6], ";"))
		if len(bad) > 0 {
			return fmt.Errorf("unresolved tokens: %s", strings.Join(bad, ", "))
		}
	}

	tester := model.NewPacketTester(fw)
	accepted, rule := tester.IsPacketAllowed(srcZone, srcAddrs, dstZone, dstAddrs, services, apps, users)
	switch {
	case rule == nil:
		fmt.Fprintln(w, "denied (no matching rule)")
	case accepted:
		fmt.Fprintf(w, "accepted by rule %d\n", rule.ID())
	default:
		fmt.Fprintf(w, "denied by rule %d\n", rule.ID())
	}
	return nil
}

func (s *Shell) renderRules(w io.Writer, fw *model.Firewall, list model.RuleList, flags *cmdFlags) error {
	list = list.FilterZonePair(s.doms.Engine(), flags.zones)
	opts := fw.MakeOutputOptions(flags.names || s.settings.ShowNames)
	if err := list.CreateTable(opts).Render(w, s.interrupt); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d rules\n", list.Len())
	return nil
}

func (s *Shell) execOpt(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: opt enable|disable|show [app|usr|url]")
	}
	opts := s.nw.Options()
	switch args[0] {
	case "show":
		fmt.Fprintf(s.out, "applications: %s\n", onOff(opts.Contains(model.OptApplication)))
		fmt.Fprintf(s.out, "users:        %s\n", onOff(opts.Contains(model.OptUser)))
		fmt.Fprintf(s.out, "urls:         %s\n", onOff(opts.Contains(model.OptURL)))
		return nil
	case "enable", "disable":
		if len(args) != 2 {
			return fmt.Errorf("usage: opt %s app|usr|url", args[0])
		}
		var opt model.ModelOption
		switch args[1] {
		case "app":
			opt = model.OptApplication
		case "usr":
			opt = model.OptUser
		case "url":
			opt = model.OptURL
		default:
			return fmt.Errorf("unknown option %q", args[1])
		}
		if args[0] == "enable" {
			opts.Add(opt)
		} else {
			opts.Remove(opt)
		}
		return nil
	default:
		return fmt.Errorf("unknown opt command %q", args[0])
	}
}

func (s *Shell) execBdd(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: bdd info|gc")
	}
	switch args[0] {
	case "info":
		fmt.Fprintln(s.out, s.doms.Engine().Stats())
		return nil
	case "gc":
		fmt.Fprintln(s.out, s.doms.Engine().Collect())
		return nil
	default:
		return fmt.Errorf("unknown bdd command %q", args[0])
	}
}

func onOff(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}
