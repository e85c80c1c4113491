package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mastercactapus/proxyv2"
)

func newRootCmd() *cobra.Command {
	v := newViper()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "parse-proxy-v2 [port]",
		Short: "Decode a PROXY protocol version 2 header",
		Long: `Decode a single PROXY protocol version 2 header and print its contents.

With no port the header is read from stdin in a single read. With a port
the tool listens on IPv4, accepts one connection and decodes the data from
one receive. The exit status is non-zero, and distinct per error, when the
header is invalid.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set("port", args[0])
			}
			cfg, err := loadConfig(v, cfgFile)
			if err != nil {
				return err
			}
			log, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}

			buf, err := acquire(cmd.Context(), log, cfg, cmd.InOrStdin())
			if err != nil {
				return err
			}

			res := proxyv2.NewResult(proxyv2.Decode(buf))
			var ie *proxyv2.InvalidHeaderErr
			if errors.As(res.Err, &ie) {
				log.WithFields(logrus.Fields{
					"kind":   ie.Kind.String(),
					"offset": ie.Offset,
				}).Debug("decode failed")
			} else if res.Header != nil && res.Header.Unsupported != nil {
				log.WithField("protocol", res.Header.Transport.String()).Debug("unsupported protocol")
			}

			if err := res.Write(cmd.OutOrStdout(), proxyv2.Format(cfg.Format)); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			if code := res.ExitCode(); code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "Config file (yaml, toml, or json).")
	f.String("port", "", "Port to listen on; reads stdin if empty.")
	f.Duration("timeout", 0, "Max time to wait for the connection and header (0 waits forever).")
	f.String("format", string(proxyv2.FormatText), "Output format: text, yaml, or json.")
	f.String("log-level", "info", "Log level for diagnostics on stderr.")
	for _, name := range []string{"port", "timeout", "format", "log-level"} {
		v.BindPFlag(name, f.Lookup(name))
	}

	cmd.AddCommand(newSampleCmd())
	return cmd
}

// acquire reads the raw header from stdin or from one accepted connection.
func acquire(ctx context.Context, log *logrus.Logger, cfg *Config, stdin io.Reader) ([]byte, error) {
	if cfg.Port == "" {
		buf, err := proxyv2.ReadHeader(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		log.Debugf("Read %d bytes from stdin", len(buf))
		return buf, nil
	}

	l, err := net.Listen("tcp4", ":"+cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	defer l.Close()
	log.Infof("Listening on port %s", cfg.Port)

	buf, err := proxyv2.AcceptOne(ctx, l, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	log.Infof("Read %d bytes in recv", len(buf))
	return buf, nil
}
