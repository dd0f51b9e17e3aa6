package hashmap

import (
	"fmt"

	"github.com/YvanMazy/Memorized/cmd/util"
	"github.com/YvanMazy/Memorized/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcClient *client.Client
	maps      *client.Map[string, string, string]

	// MapCommands represents the map command group. Maps addressed from the
	// cli use string keys and string values.
	MapCommands = &cobra.Command{
		Use:                "map",
		Short:              "Perform string map operations",
		PersistentPreRunE:  setupMapClient,
		PersistentPostRunE: shutdownMapClient,
	}

	getCmd = &cobra.Command{
		Use:   "get [map] [key]",
		Short: "Prints the value stored under key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lookup, err := maps.Get(args[0], args[1]).Await()
			if err != nil {
				return err
			}
			if !lookup.Found {
				fmt.Println("not found")
				return nil
			}
			fmt.Println(lookup.Value)
			return nil
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [map] [key] [value]",
		Short: "Stores value under key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := maps.Put(args[0], args[1], args[2]).Await(); err != nil {
				return err
			}
			fmt.Println("put successfully")
			return nil
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [map] [key]",
		Short: "Removes key from a map",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := maps.Remove(args[0], args[1]).Await(); err != nil {
				return err
			}
			fmt.Println("removed successfully")
			return nil
		},
	}
	createCmd = &cobra.Command{
		Use:   "create [map]",
		Short: "Creates a map if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := maps.Create(args[0]).Await()
			if err != nil {
				return err
			}
			fmt.Printf("created=%v\n", created)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [map]",
		Short: "Deletes a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := maps.Delete(args[0]).Await()
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

	// Add common client flags to the map command
	util.SetupClientFlags(MapCommands)

	// Add subcommands
	MapCommands.AddCommand(getCmd)
	MapCommands.AddCommand(putCmd)
	MapCommands.AddCommand(removeCmd)
	MapCommands.AddCommand(createCmd)
	MapCommands.AddCommand(deleteCmd)
}

// setupMapClient connects to the server and creates the map accessor
func setupMapClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	c, err := util.ConnectClient()
	if err != nil {
		return err
	}
	rpcClient = c

	maps, err = client.NewMap[string, string, string](c)
	return err
}

func shutdownMapClient(*cobra.Command, []string) error {
	if rpcClient == nil {
		return nil
	}
	return rpcClient.Shutdown()
}
