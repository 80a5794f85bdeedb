package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tal"
)

func newRootCmd(v *viper.Viper) *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:   "talrender",
		Short: "Render tal directive templates",
		Long: `talrender renders markup templates that use tal:* directives
(condition, repeat, content, replace, attributes, define, extends, slot).

Settings are read from flags, TALRENDER_* environment variables and an
optional .talrender.yaml file, in that order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default .talrender.yaml)")
	flags.String("dir", ".", "template root directory")
	flags.Bool("lenient", false, "emit the raw source behind a comment on parse errors")
	flags.Bool("strict", false, "parse templates as strict XML")
	flags.Bool("html", false, "parse templates with the HTML tokenizer")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	_ = v.BindPFlags(flags)

	root.AddCommand(newRenderCmd(v), newModifiersCmd())
	return root
}

func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix("TALRENDER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".talrender")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config")
		}
	}
	return nil
}

func newEngine(cfg *Config, logger *slog.Logger) (*tal.Engine, *tal.DirResolver, error) {
	resolver, err := tal.NewDirResolver(cfg.Dir, logger)
	if err != nil {
		return nil, nil, err
	}
	var parser tal.Parser = &tal.XMLParser{Strict: cfg.Strict}
	if cfg.HTML {
		parser = &tal.HTMLParser{}
	}
	engine := tal.NewEngine(tal.Config{
		Resolver:      resolver,
		Parser:        parser,
		Logger:        logger,
		Lenient:       cfg.Lenient,
		IndentRepeats: cfg.Indent,
	})
	return engine, resolver, nil
}

func newRenderCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <template>...",
		Short: "Render templates found under --dir",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			ctx, err := loadContext(cfg.Data, cfg.Set)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			engine, resolver, err := newEngine(cfg, logger)
			if err != nil {
				return err
			}
			defer resolver.Close()
			render := func() error {
				return renderAll(engine, cfg.Out, cmd.OutOrStdout(), args, ctx)
			}
			if !cfg.Watch {
				return render()
			}
			if err := render(); err != nil {
				logger.Error("render failed", "error", err)
			}
			changes, notify := notifier(outputName(cfg.Dir, cfg.Out))
			resolver.OnChange(notify)
			if err := resolver.Watch(); err != nil {
				return err
			}
			logger.Info("watching templates", "dir", cfg.Dir)
			return watchAndRender(cmd.Context(), changes, render, logger)
		},
	}
	flags := cmd.Flags()
	flags.String("data", "", "YAML or JSON file with the render context")
	flags.StringArray("set", nil, "context override key=value (repeatable, dotted keys nest)")
	flags.StringP("out", "o", "", "write output to a file instead of stdout")
	flags.Bool("indent", false, "indent repeated elements like their first copy")
	flags.Bool("watch", false, "render again whenever a file under --dir changes")
	_ = v.BindPFlags(flags)
	return cmd
}

// renderAll renders each named template to out, or to a freshly created file
// when path is set.
func renderAll(engine *tal.Engine, path string, out io.Writer, names []string, ctx tal.RenderContext) error {
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.WithStack(err)
		}
		defer f.Close()
		out = f
	}
	for _, name := range names {
		if err := engine.RenderTemplate(out, name, ctx); err != nil {
			return err
		}
	}
	return nil
}

func newModifiersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modifiers",
		Short: "List the output modifiers usable in pipe expressions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range tal.NewModifiers().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
