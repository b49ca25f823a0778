package cli

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/robert-malhotra/go-dap/handler"
	"github.com/robert-malhotra/go-dap/model"
	"github.com/robert-malhotra/go-dap/server"
)

// Version is the version of the dap command.
const Version = "0.1.0"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Cfg holds the configuration and the command tree built on it.
type Cfg struct {
	*viper.Viper

	Root *cobra.Command

	// listen serves h on addr. It is replaced in tests.
	listen func(addr string, h http.Handler) error
}

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

// InitializeConfig builds the command tree and binds every option to its
// flag, to an environment variable prefixed with DAP_ and to the
// configuration file given by --config.
func InitializeConfig() *Cfg {
	cfg := &Cfg{
		Viper:  viper.New(),
		listen: http.ListenAndServe,
	}

	cfg.Root = &cobra.Command{
		Use:   "dap",
		Short: "Serve netCDF and HDF5 files over DAP2.",
		Long: `dap publishes the netCDF and HDF5 files below a directory as DAP2
datasets with .dds, .das, .ascii and .json responses.

Configuration can be set with a configuration file (using the --config
flag), with command-line flags, or with environment variables named
'DAP_var' where 'var' is the upper-cased option name with dashes replaced
by underscores.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return cfg.setConfig() },
	}

	versionCmd := &cobra.Command{
		Use:               "version",
		Short:             "Print the version number",
		DisableAutoGenTag: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("dap v%s\n", Version)
		},
	}

	serveCmd := &cobra.Command{
		Use:               "serve",
		Short:             "Serve a directory over HTTP",
		Long:              "serve publishes every file below --root on --addr.",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.serve(cmd)
		},
	}

	infoCmd := &cobra.Command{
		Use:               "info FILE",
		Short:             "Print the dataset tree of a file",
		Long:              "info opens FILE as the server would and prints its variables and attributes.",
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.info(cmd, args[0])
		},
	}

	options := []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "log-level",
			usage: `
              log-level is one of debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "strict-slicing",
			usage: `
              strict-slicing rejects any hyperslab applied to a view that is
              already sliced, whatever its step, instead of composing the two
              selections.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{serveCmd.Flags(), infoCmd.Flags()},
		},
		{
			name: "addr",
			usage: `
              addr is the address the server listens on.`,
			shorthand:  "a",
			defaultVal: ":8001",
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
		{
			name: "root",
			usage: `
              root is the directory whose files are served.`,
			shorthand:  "r",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
		{
			name: "cache-size",
			usage: `
              cache-size is the number of files kept open between requests.`,
			defaultVal: 16,
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
		{
			name: "json",
			usage: `
              json prints the dataset description as JSON.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{infoCmd.Flags()},
		},
	}

	cfg.SetEnvPrefix("DAP")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // The flag only needs to be created once.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	cfg.Root.AddCommand(versionCmd, serveCmd, infoCmd)
	return cfg
}

// setConfig reads the configuration file, if there is one.
func (cfg *Cfg) setConfig() error {
	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(cfgpath)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("dap: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// logger returns a logger writing to w at the configured level.
func (cfg *Cfg) logger(w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(cfg.GetString("log-level"))
	if err != nil {
		return nil, fmt.Errorf("dap: %v", err)
	}
	log := logrus.New()
	log.Out = w
	log.Level = lvl
	return log, nil
}

func (cfg *Cfg) serve(cmd *cobra.Command) error {
	log, err := cfg.logger(cmd.OutOrStderr())
	if err != nil {
		return err
	}
	size, err := cast.ToIntE(cfg.Get("cache-size"))
	if err != nil {
		return fmt.Errorf("dap: cache-size: %v", err)
	}
	if size < 1 {
		return fmt.Errorf("dap: cache-size must be positive, got %d", size)
	}
	strict, err := cast.ToBoolE(cfg.Get("strict-slicing"))
	if err != nil {
		return fmt.Errorf("dap: strict-slicing: %v", err)
	}

	root, addr := cfg.GetString("root"), cfg.GetString("addr")
	s := server.New(root,
		server.WithLogger(log),
		server.WithCacheSize(size),
		server.WithStrictSlicing(strict),
	)
	defer s.Close()

	log.WithFields(logrus.Fields{"root": root, "addr": addr}).Info("serving")
	return cfg.listen(addr, s)
}

func (cfg *Cfg) info(cmd *cobra.Command, path string) error {
	log, err := cfg.logger(cmd.OutOrStderr())
	if err != nil {
		return err
	}
	strict, err := cast.ToBoolE(cfg.Get("strict-slicing"))
	if err != nil {
		return fmt.Errorf("dap: strict-slicing: %v", err)
	}
	h, err := server.Open(path, handler.WithLogger(log), handler.WithStrictSlicing(strict))
	if err != nil {
		return err
	}
	defer h.Close()

	w := cmd.OutOrStdout()
	if cfg.GetBool("json") {
		b, err := jsonAPI.MarshalIndent(server.Describe(h.Dataset()), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}
	return printTree(w, h.Dataset())
}

// printTree writes one line per node, indented by depth, followed by the
// node's attributes.
func printTree(w io.Writer, ds *model.DatasetType) error {
	return model.Walk(ds, func(path string, n model.Node) error {
		depth := len(model.SplitPath(path))
		indent := strings.Repeat("  ", depth)
		switch n := n.(type) {
		case *model.DatasetType:
			fmt.Fprintf(w, "%sDataset %q:\n", indent, n.Name())
		case *model.StructureType:
			fmt.Fprintf(w, "%sStructure %q:\n", indent, path)
		case *model.GridType:
			fmt.Fprintf(w, "%sGrid %q:\n", indent, path)
		case *model.BaseType:
			typ, ok := model.TypeName(n.Dtype())
			if !ok {
				typ = n.Dtype().String()
			}
			fmt.Fprintf(w, "%s%s %q%s:\n", indent, typ, path, shapeString(n))
		}
		printAttributes(w, indent+"  ", n.Attributes())
		return nil
	})
}

func shapeString(b *model.BaseType) string {
	var sb strings.Builder
	for i, n := range b.Shape() {
		if i < len(b.Dimensions) {
			fmt.Fprintf(&sb, "[%s = %d]", b.Dimensions[i], n)
		} else {
			fmt.Fprintf(&sb, "[%d]", n)
		}
	}
	return sb.String()
}

func printAttributes(w io.Writer, indent string, attrs model.Attributes) {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch v := attrs[name].(type) {
		case model.Attributes:
			fmt.Fprintf(w, "%s%s:\n", indent, name)
			printAttributes(w, indent+"  ", v)
		default:
			fmt.Fprintf(w, "%s%s = %v\n", indent, name, v)
		}
	}
}
