package main

import (
	"flag"
	"fmt"
	"os"

	"grimm.is/palisade/cmd"
	"grimm.is/palisade/internal/brand"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "shell":
		shellFlags := flag.NewFlagSet("shell", flag.ExitOnError)
		configFile := shellFlags.String("config", "", "Settings file (HCL)")
		shellFlags.StringVar(configFile, "c", "", "Settings file (short)")
		shellFlags.Parse(os.Args[2:])

		if err := cmd.RunShell(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Shell failed: %v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		configFile := checkFlags.String("config", "", "Settings file (HCL)")
		checkFlags.StringVar(configFile, "c", "", "Settings file (short)")

		objects := checkFlags.String("objects", "", "Object catalog (TOML)")
		checkFlags.StringVar(objects, "b", "", "Object catalog (short)")

		verbose := checkFlags.Bool("verbose", false, "Also run the symmetry pass")
		checkFlags.BoolVar(verbose, "v", false, "Verbose output (short)")

		strict := checkFlags.Bool("strict", false, "Strict symmetry comparison")
		checkFlags.Parse(os.Args[2:])

		if len(checkFlags.Args()) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: "+brand.BinaryName+" check [-objects <catalog.toml>] <policy.csv>")
			os.Exit(1)
		}
		anomalies, err := cmd.RunCheck(*configFile, checkFlags.Arg(0), *objects, *strict, *verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}
		if anomalies > 0 {
			os.Exit(1)
		}

	case "compare":
		compareFlags := flag.NewFlagSet("compare", flag.ExitOnError)
		configFile := compareFlags.String("config", "", "Settings file (HCL)")
		compareFlags.StringVar(configFile, "c", "", "Settings file (short)")

		objects := compareFlags.String("objects", "", "Object catalog (TOML)")
		compareFlags.Parse(os.Args[2:])

		if len(compareFlags.Args()) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: "+brand.BinaryName+" compare [-objects <catalog.toml>] <a.csv> <b.csv>")
			os.Exit(1)
		}
		equivalent, err := cmd.RunCompare(*configFile, compareFlags.Arg(0), compareFlags.Arg(1), *objects)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Compare failed: %v\n", err)
			os.Exit(1)
		}
		if !equivalent {
			os.Exit(1)
		}

	case "version":
		fmt.Printf("%s version %s\n", brand.Name, brand.Version)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - %s

Usage:
  %s <command> [options]

Commands:
  shell     Interactive analyzer console
            Options: --config (-c) <file>
  check     One-shot anomaly analysis of a policy CSV
            Options: --objects (-b) <catalog.toml>, --verbose (-v), --strict
            Exits nonzero when anomalies are found
  compare   Decide whether two policies admit the same traffic
            Options: --objects <catalog.toml>
  version   Print version info

Examples:
  %s shell
  %s check -objects objects.toml policy.csv
  %s compare -objects objects.toml before.csv after.csv
`,
		brand.Name, brand.Description,
		brand.BinaryName,
		brand.BinaryName, brand.BinaryName, brand.BinaryName)
}
