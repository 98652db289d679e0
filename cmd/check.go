package cmd

import (
	"fmt"
	"os"

	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/model"
	"grimm.is/palisade/internal/ostore"
	"grimm.is/palisade/internal/shell"
)

// RunCheck loads a policy and runs the anomaly pass once. It returns
// the number of anomalies found so the caller can set the exit code.
func RunCheck(configFile, policyFile, objectsFile string, strictSymmetry, verbose bool) (int, error) {
	settings, err := config.Load(configFile)
	if err != nil {
		return 0, err
	}
	log := newLogger(settings)

	session, err := shell.New(settings, log)
	if err != nil {
		return 0, err
	}
	defer session.Close()

	fw, err := session.Network().AddFirewall("policy", settings.IPAddressModel())
	if err != nil {
		return 0, err
	}
	if objectsFile != "" {
		if err := session.Store().LoadCatalog(objectsFile); err != nil {
			return 0, err
		}
	}
	reader := ostore.NewPolicyReader(session.Store(), log)
	status, err := reader.LoadFile(policyFile, fw)
	if err != nil {
		return 0, err
	}
	for _, line := range status.Summary() {
		fmt.Fprintf(os.Stderr, "load: %s\n", line)
	}
	if status.Loaded == 0 {
		return 0, fmt.Errorf("no rules loaded from %s", policyFile)
	}

	analyzer := model.NewAnalyzer(fw)
	report, err := analyzer.CheckAnomaly(model.NeverInterrupt)
	if err != nil {
		return 0, err
	}
	if err := report.CreateTable(fw.Rules().HaveNames()).Render(os.Stdout, model.NeverInterrupt); err != nil {
		return 0, err
	}
	fmt.Printf("%d anomalies in %d rules\n", len(report.Items), analyzer.ACL().Len())
	if report.MissingDenyAll {
		fmt.Println("note: the policy does not end with a deny-all rule; some traffic is unclassified")
	}

	if verbose {
		pairs, err := analyzer.CheckSymmetry(strictSymmetry, model.NeverInterrupt)
		if err != nil {
			return 0, err
		}
		fmt.Printf("%d symmetrical pairs\n", len(pairs))
	}

	return len(report.Items), nil
}
