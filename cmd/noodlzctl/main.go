// Command noodlzctl is the operator CLI: schema management, account and menu
// administration, order listing and legacy JSON import.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/noodlz/noodlz/internal/auth"
	"github.com/noodlz/noodlz/internal/config"
	"github.com/noodlz/noodlz/internal/importer"
	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/service"
	"github.com/noodlz/noodlz/internal/storage/sqlite"
)

const usage = `Usage: noodlzctl <command> [args]

Commands:
  createdb [--testdata]                      rebuild the schema from scratch
  user add <name> [--generate]               create an account
  destination add <name>                     create a destination
  item list                                  list all items
  item add <dest-id> <name> <price> [--tag]  add a menu item
  item modify <id> [--name] [--tag] [--remove-tag]
  item reprice <id> <price>                  retire and clone with new price
  item remove <id>                           retire an item
  order list                                 list all orders
  import <destinations.json> [trip.json...]  import legacy JSON data
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	switch args[0] {
	case "createdb":
		return cmdCreateDB(ctx, store, args[1:])
	case "user":
		return cmdUser(ctx, store, args[1:])
	case "destination":
		return cmdDestination(ctx, store, args[1:])
	case "item":
		return cmdItem(ctx, store, args[1:])
	case "order":
		return cmdOrder(ctx, store, args[1:])
	case "import":
		im := &importer.Importer{Store: store, Out: os.Stdout}
		if len(args) < 2 {
			return errors.New("import needs a destinations.json")
		}
		return im.Run(ctx, args[1], args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func cmdCreateDB(ctx context.Context, store *sqlite.SQLiteStore, args []string) error {
	fs := flag.NewFlagSet("createdb", flag.ExitOnError)
	testdata := fs.Bool("testdata", false, "seed demo users, destinations, trips and orders")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := store.Reset(); err != nil {
		return err
	}
	if *testdata {
		return seedTestData(ctx, store)
	}
	return nil
}

func cmdUser(ctx context.Context, store *sqlite.SQLiteStore, args []string) error {
	if len(args) < 2 || args[0] != "add" {
		return errors.New("usage: user add <name> [--generate]")
	}
	name := args[1]
	fs := flag.NewFlagSet("user add", flag.ExitOnError)
	generate := fs.Bool("generate", false, "generate a password instead of asking for one")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}

	var password string
	if *generate {
		password = uuid.NewString()
		fmt.Printf("Generated password: %s\n", password)
	} else {
		var err error
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user := &models.User{Name: name, PassHash: hash}
	if err := store.CreateUser(ctx, user); err != nil {
		return err
	}
	fmt.Printf("User id: %d\n", user.ID)
	return nil
}

func cmdDestination(ctx context.Context, store *sqlite.SQLiteStore, args []string) error {
	if len(args) < 2 || args[0] != "add" {
		return errors.New("usage: destination add <name>")
	}
	dest := &models.Destination{Name: args[1]}
	if err := store.CreateDestination(ctx, dest); err != nil {
		return err
	}
	fmt.Printf("Destination id: %d\n", dest.ID)
	return nil
}

func cmdItem(ctx context.Context, store *sqlite.SQLiteStore, args []string) error {
	items := service.NewItemService(store)
	if len(args) == 0 {
		return errors.New("usage: item list|add|modify|reprice|remove")
	}

	switch args[0] {
	case "list":
		all, err := items.List(ctx)
		if err != nil {
			return err
		}
		for _, it := range all {
			printItem(&it)
		}
		return nil

	case "add":
		rest := args[1:]
		if len(rest) < 3 {
			return errors.New("usage: item add <dest-id> <name> <price> [--tag]")
		}
		destID, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid destination id: %w", err)
		}
		price, err := models.ParseCents(rest[2])
		if err != nil {
			return err
		}
		fs := flag.NewFlagSet("item add", flag.ExitOnError)
		tag := fs.String("tag", "", "short tag")
		if err := fs.Parse(rest[3:]); err != nil {
			return err
		}
		item, err := items.Add(ctx, destID, rest[1], price, *tag)
		if err != nil {
			return err
		}
		fmt.Printf("Item id: %d\n", item.ID)
		return nil

	case "modify":
		rest := args[1:]
		if len(rest) < 1 {
			return errors.New("usage: item modify <id> [--name] [--tag] [--remove-tag]")
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id: %w", err)
		}
		fs := flag.NewFlagSet("item modify", flag.ExitOnError)
		name := fs.String("name", "", "new name")
		tag := fs.String("tag", "", "new tag")
		removeTag := fs.Bool("remove-tag", false, "clear the tag")
		if err := fs.Parse(rest[1:]); err != nil {
			return err
		}
		item, err := items.Modify(ctx, id, *name, *tag, *removeTag)
		if err != nil {
			return err
		}
		printItem(item)
		return nil

	case "reprice":
		rest := args[1:]
		if len(rest) < 2 {
			return errors.New("usage: item reprice <id> <price>")
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id: %w", err)
		}
		price, err := models.ParseCents(rest[1])
		if err != nil {
			return err
		}
		clone, err := items.Reprice(ctx, id, price)
		if err != nil {
			return describeConflict(err)
		}
		fmt.Printf("New item id: %d\n", clone.ID)
		return nil

	case "remove":
		rest := args[1:]
		if len(rest) < 1 {
			return errors.New("usage: item remove <id>")
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id: %w", err)
		}
		if err := items.Remove(ctx, id); err != nil {
			return describeConflict(err)
		}
		return nil

	default:
		return fmt.Errorf("unknown item command %q", args[0])
	}
}

func cmdOrder(ctx context.Context, store *sqlite.SQLiteStore, args []string) error {
	if len(args) < 1 || args[0] != "list" {
		return errors.New("usage: order list")
	}
	orders, err := store.ListOrders(ctx)
	if err != nil {
		return err
	}
	for _, o := range orders {
		fmt.Printf("id=%d trip=%d date=%s buyer=%s destination=%s    item=%s price=%s    orderer=%s paid=%t\n",
			o.ID, o.TripID, o.TripDate.Format(models.DateFormat), o.TripOwner,
			o.DestinationName, o.ItemName, o.ItemPrice, o.UserName, o.Settled)
	}
	return nil
}

// describeConflict expands an ItemInUseError into the list of open orders
// blocking the operation.
func describeConflict(err error) error {
	var inUse *service.ItemInUseError
	if !errors.As(err, &inUse) {
		return err
	}
	fmt.Println("Blocked by orders on open trips:")
	for _, o := range inUse.Conflicts {
		fmt.Printf("  order=%d trip=%d date=%s orderer=%s\n",
			o.ID, o.TripID, o.TripDate.Format(models.DateFormat), o.UserName)
	}
	return errors.New("item is still in use")
}

func printItem(it *models.Item) {
	fmt.Printf("id=%d tag=%s name=%s destination=%d price=%s historical=%t\n",
		it.ID, it.Tag, it.Name, it.DestinationID, it.Price, it.Historical)
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Print("Again: ")
	again, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if string(password) != string(again) {
		return "", errors.New("passwords don't match")
	}
	return string(password), nil
}
