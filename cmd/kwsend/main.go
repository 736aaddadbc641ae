// Command kwsend feeds keyword notifications to a running hmi daemon over
// gRPC, the way a keyword spotter would.
//
//	kwsend green activate           # GREEN x3, then ACTIVATE x3
//	kwsend --stream red,deactivate  # one combined set on a stream
//	kwsend token --secret s --producer mic
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kwhmi/agent/internal/auth"
	"kwhmi/agent/internal/config"
	"kwhmi/agent/internal/keyword"
	"kwhmi/agent/internal/rpc"
)

var rootCmd = &cobra.Command{
	Use:   "kwsend [flags] KEYWORDS...",
	Short: "Send keyword notifications to the hmi daemon",
	Long: `Each argument is one keyword set, e.g. "green" or "green,activate".
Every set is sent --repeat times so it passes the daemon's debounce filter.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a producer token for the websocket endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := viper.GetString("secret")
		if secret == "" {
			return fmt.Errorf("--secret or PRODUCER_TOKEN_SECRET is required")
		}
		producer, _ := cmd.Flags().GetString("producer")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		tok, err := auth.GenerateProducerToken(secret, producer, time.Now().Add(ttl).Unix())
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	rootCmd.Flags().String("addr", ":9095", "daemon gRPC address (or HMI_RPC_ADDR)")
	rootCmd.Flags().String("objects", "green:5,red:4", "object vocabulary (or HMI_OBJECTS)")
	rootCmd.Flags().Int("repeat", 3, "notifications per keyword set")
	rootCmd.Flags().Duration("interval", 50*time.Millisecond, "delay between notifications")
	rootCmd.Flags().Bool("stream", false, "send over one Publish stream instead of unary calls")
	rootCmd.Flags().Duration("timeout", 10*time.Second, "overall deadline")

	tokenCmd.Flags().String("secret", "", "producer token secret (or PRODUCER_TOKEN_SECRET)")
	tokenCmd.Flags().String("producer", "kwsend", "producer name carried in the token")
	tokenCmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)

	viper.BindPFlag("addr", rootCmd.Flags().Lookup("addr"))
	viper.BindPFlag("objects", rootCmd.Flags().Lookup("objects"))
	viper.BindPFlag("secret", tokenCmd.Flags().Lookup("secret"))
	viper.BindEnv("addr", "HMI_RPC_ADDR")
	viper.BindEnv("objects", "HMI_OBJECTS")
	viper.BindEnv("secret", "PRODUCER_TOKEN_SECRET")
}

func runSend(cmd *cobra.Command, args []string) error {
	objs, err := config.ParseObjects(viper.GetString("objects"))
	if err != nil {
		return err
	}
	names := make([]string, len(objs))
	for i, o := range objs {
		names[i] = o.Name
	}
	vocab, err := keyword.NewVocabulary(names...)
	if err != nil {
		return err
	}
	sets := make([]keyword.Set, 0, len(args))
	for _, a := range args {
		s, err := vocab.Parse(a)
		if err != nil {
			return fmt.Errorf("argument %q: %w", a, err)
		}
		sets = append(sets, s)
	}

	repeat, _ := cmd.Flags().GetInt("repeat")
	interval, _ := cmd.Flags().GetDuration("interval")
	stream, _ := cmd.Flags().GetBool("stream")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if repeat < 1 {
		repeat = 1
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	addr := viper.GetString("addr")
	client, err := rpc.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer client.Close()

	send := func(s keyword.Set) error { return client.Raise(ctx, s) }
	var pub *rpc.Publisher
	if stream {
		pub, err = client.Publish(ctx)
		if err != nil {
			return fmt.Errorf("open stream: %w", err)
		}
		send = pub.Send
	}

	for _, s := range sets {
		for i := 0; i < repeat; i++ {
			if err := send(s); err != nil {
				return fmt.Errorf("send %s: %w", vocab.Format(s), err)
			}
			select {
			case <-time.After(interval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		fmt.Printf("sent %s x%d\n", vocab.Format(s), repeat)
	}
	if pub != nil {
		return pub.CloseAndRecv()
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
