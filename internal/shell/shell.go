// Package shell implements the interactive analyzer console: one
// command per line, output redirection, and cooperative interruption of
// long checks via Ctrl-C.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/fqdn"
	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/model"
	"grimm.is/palisade/internal/ostore"
)

// errQuit signals a clean shell exit.
var errQuit = errors.New("quit")

// Shell holds the session state: the network, the object store, and the
// currently selected firewall.
type Shell struct {
	settings *config.Settings
	log      *logging.Logger

	doms     *model.Domains
	nw       *model.Network
	store    *ostore.Store
	resolver *fqdn.Resolver

	current *model.Firewall

	out         io.Writer
	interrupted atomic.Bool
}

// New builds a session from the settings: domain registry, network,
// object store and FQDN resolver.
func New(settings *config.Settings, log *logging.Logger) (*Shell, error) {
	doms, err := model.NewDomains(settings.NodeSize, settings.CacheSize)
	if err != nil {
		return nil, err
	}
	opts := settings.ModelOptions()
	resolver, err := fqdn.New(settings.CachePath, settings.DNSServer, settings.Offline, log)
	if err != nil {
		return nil, err
	}
	return &Shell{
		settings: settings,
		log:      log.WithComponent("shell"),
		doms:     doms,
		nw:       model.NewNetwork(doms, opts),
		store:    ostore.New(doms, opts, settings.Strict(), resolver),
		resolver: resolver,
		out:      os.Stdout,
	}, nil
}

// Network exposes the session network; the one-shot commands reuse it.
func (s *Shell) Network() *model.Network { return s.nw }

// Store exposes the session object store.
func (s *Shell) Store() *ostore.Store { return s.store }

// Close releases session resources.
func (s *Shell) Close() error { return s.resolver.Close() }

// interrupt is polled by long passes and the table writer.
func (s *Shell) interrupt() bool { return s.interrupted.Load() }

// Run reads commands from in until quit or EOF. SIGINT interrupts the
// running command, not the shell.
func (s *Shell) Run(in io.Reader, out io.Writer) error {
	s.out = out

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			s.interrupted.Store(true)
		}
	}()

	fmt.Fprintf(out, "%s %s - %s\n", brand.Name, brand.Version, brand.Description)
	fmt.Fprintln(out, `Type "help" for commands, "quit" to leave.`)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprintf(out, "%s> ", s.prompt())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		s.interrupted.Store(false)
		if err := s.Execute(scanner.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func (s *Shell) prompt() string {
	if s.current != nil {
		return brand.LowerName + ":" + s.current.Name()
	}
	return brand.LowerName
}

// Execute dispatches one command line.
func (s *Shell) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	args := strings.Fields(line)

	switch args[0] {
	case "quit", "exit":
		return errQuit
	case "help":
		s.printHelp()
		return nil
	case "about":
		fmt.Fprintf(s.out, "%s %s\n%s\n%s\n", brand.Name, brand.Version, brand.Description, brand.Tagline)
		return nil
	case "fw":
		return s.execFw(args[1:])
	case "opt":
		return s.execOpt(args[1:])
	case "bdd":
		return s.execBdd(args[1:])
	default:
		return fmt.Errorf("unknown command %q (try help)", args[0])
	}
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `Commands:
  fw create <name> [-ip4|-ip6|-ip64]   create a firewall
  fw delete <name>                     delete a firewall
  fw select <name>                     select the working firewall
  fw copy <src> <dst>                  deep-copy a firewall
  fw list                              list firewalls
  fw info                              summarize the selected firewall
  fw load <policy.csv> [-objects <catalog.toml>]
  fw show rules [-n] [-o <file>]       list rules
  fw show rule <id>                    show one rule
  fw show addr|svc|app|usr|url         show the object catalogs
  fw check anomaly [-z <src> <dst>] [-o <file>]
  fw check symmetry [-strict]
  fw check deny                        find deny-all rules
  fw check any <dst-addr>...           rules opening every service
  fw check addr|svc|app <token>... [-any]
  fw check equivalence <firewall>
  fw check packet <src-zone|-> <src-addr> <dst-zone|-> <dst-addr> <svc|-> [app] [usr]
  opt enable|disable app|usr|url       toggle modeling axes
  opt show
  bdd info                             node table statistics
  bdd gc                               collect dead nodes
  about, help, quit
`)
}

// cmdFlags is the tiny option scanner shared by the fw subcommands:
// it strips the known flags and returns the positionals.
type cmdFlags struct {
	output  string
	zones   *model.ZonePair
	strict  bool
	showAny bool
	names   bool
	ipModel *model.IPModel
	objects string
	svc     []string
}

func (s *Shell) parseFlags(args []string) ([]string, *cmdFlags, error) {
	flags := &cmdFlags{}
	var positional []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("-o needs a file name")
			}
			i++
			flags.output = args[i]
		case "-z":
			if i+2 >= len(args) {
				return nil, nil, fmt.Errorf("-z needs source and destination zones")
			}
			src, err := s.nw.Zones().SrcZone(args[i+1])
			if err != nil {
				return nil, nil, err
			}
			dst, err := s.nw.Zones().DstZone(args[i+2])
			if err != nil {
				return nil, nil, err
			}
			flags.zones = &model.ZonePair{Src: src, Dst: dst}
			i += 2
		case "-svc":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("-svc needs a token list")
			}
			i++
			flags.svc = strings.Split(args[i], ";")
		case "-objects":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("-objects needs a file name")
			}
			i++
			flags.objects = args[i]
		case "-strict":
			flags.strict = true
		case "-any":
			flags.showAny = true
		case "-n":
			flags.names = true
		case "-ip4", "-ip6", "-ip64":
			m, _ := model.ParseIPModel(strings.TrimPrefix(args[i], "-"))
			flags.ipModel = &m
		default:
			// A bare "-" is a positional placeholder (unset packet field).
			if len(args[i]) > 1 && strings.HasPrefix(args[i], "-") {
				return nil, nil, fmt.Errorf("unknown flag %q", args[i])
			}
			positional = append(positional, args[i])
		}
	}
	return positional, flags, nil
}

// writer opens the command's output target: the -o file or the console.
func (s *Shell) writer(flags *cmdFlags) (io.Writer, func() error, error) {
	if flags.output == "" {
		return s.out, func() error { return nil }, nil
	}
	f, err := os.Create(flags.output)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", flags.output, err)
	}
	return f, f.Close, nil
}

// needFirewall returns the selected firewall or an instruction to
// select one.
func (s *Shell) needFirewall() (*model.Firewall, error) {
	if s.current == nil {
		return nil, fmt.Errorf("no firewall selected (fw create / fw select)")
	}
	return s.current, nil
}
