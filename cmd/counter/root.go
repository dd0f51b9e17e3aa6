package counter

import (
	"fmt"
	"strconv"

	"github.com/YvanMazy/Memorized/cmd/util"
	"github.com/YvanMazy/Memorized/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcClient *client.Client
	counters  *client.Counter[string]

	// CounterCommands represents the counter command group
	CounterCommands = &cobra.Command{
		Use:                "counter",
		Short:              "Perform counter operations",
		PersistentPreRunE:  setupCounterClient,
		PersistentPostRunE: shutdownCounterClient,
	}

	getCmd = &cobra.Command{
		Use:   "get [name]",
		Short: "Prints the value of a counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printValue(counters.Get(args[0]))
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [name] [value]",
		Short: "Sets the value of a counter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseInt32(args[1])
			if err != nil {
				return err
			}
			if _, err := counters.Set(args[0], value).Await(); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	resetCmd = &cobra.Command{
		Use:   "reset [name]",
		Short: "Resets a counter to zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := counters.Reset(args[0]).Await(); err != nil {
				return err
			}
			fmt.Println("reset successfully")
			return nil
		},
	}
	incrCmd = &cobra.Command{
		Use:   "incr [name] [delta]",
		Short: "Adds delta (default 1) to a counter and prints the new value",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := deltaArg(args)
			if err != nil {
				return err
			}
			return printValue(counters.IncrementAndGet(args[0], delta))
		},
	}
	decrCmd = &cobra.Command{
		Use:   "decr [name] [delta]",
		Short: "Subtracts delta (default 1) from a counter and prints the new value",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := deltaArg(args)
			if err != nil {
				return err
			}
			return printValue(counters.DecrementAndGet(args[0], delta))
		},
	}
	createCmd = &cobra.Command{
		Use:   "create [name]",
		Short: "Creates a counter if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := counters.Create(args[0]).Await()
			if err != nil {
				return err
			}
			fmt.Printf("created=%v\n", created)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [name]",
		Short: "Deletes a counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := counters.Delete(args[0]).Await()
			if err != nil {
				return err
			}
			fmt.Printf("deleted=%v\n", deleted)
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common client flags to the counter command
	util.SetupClientFlags(CounterCommands)

	// Add subcommands
	CounterCommands.AddCommand(getCmd)
	CounterCommands.AddCommand(setCmd)
	CounterCommands.AddCommand(resetCmd)
	CounterCommands.AddCommand(incrCmd)
	CounterCommands.AddCommand(decrCmd)
	CounterCommands.AddCommand(createCmd)
	CounterCommands.AddCommand(deleteCmd)
}

// setupCounterClient connects to the server and creates the counter accessor
func setupCounterClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	c, err := util.ConnectClient()
	if err != nil {
		return err
	}
	rpcClient = c

	counters, err = client.NewCounter[string](c)
	return err
}

func shutdownCounterClient(*cobra.Command, []string) error {
	if rpcClient == nil {
		return nil
	}
	return rpcClient.Shutdown()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func printValue(f *client.Future[int32]) error {
	value, err := f.Await()
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

func deltaArg(args []string) (int32, error) {
	if len(args) < 2 {
		return 1, nil
	}
	return parseInt32(args[1])
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("value must be a 32 bit integer: %w", err)
	}
	return int32(v), nil
}
