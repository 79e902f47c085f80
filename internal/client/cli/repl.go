package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests use a stub.
type execIface interface {
	SetName(args []string) error
	SetSlug(args []string) error
	SetDescription(args []string) error
	SetSize(args []string) error
	AddColor(args []string) error
	RemoveColor(args []string) error
	SetCategory(args []string) error
	ListCategories() error
	ToggleCollection(args []string) error
	ListCollections() error
	SetPrice(args []string) error
	SetSalePrice(args []string) error
	ToggleFlag(args []string) error
	AddAssets(args []string) error
	RemoveAsset(args []string) error
	Upload(ctx context.Context) error
	Status() error
	Show() error
	Submit(ctx context.Context) error
	New() error
	Refresh(ctx context.Context) error
}

const helpText = `Available commands:
  name <text>            slug <text>             desc [text]
  size [text]            color <hex> <name>      uncolor <n>
  category <id>          categories              collection <id>
  collections            price <amount>          saleprice [amount]
  flag <name>            add <file>...           remove <index>
  upload                 status                  show
  submit                 new                     refresh
  help                   exit`

// runREPL reads commands from reader until EOF or exit/quit. Handler errors
// are reported by the handlers themselves; the loop keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gs %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help", "?":
			printlnFn(helpText)
		case "name":
			_ = a.SetName(args)
		case "slug":
			_ = a.SetSlug(args)
		case "desc", "description":
			_ = a.SetDescription(args)
		case "size":
			_ = a.SetSize(args)
		case "color":
			_ = a.AddColor(args)
		case "uncolor":
			_ = a.RemoveColor(args)
		case "category":
			_ = a.SetCategory(args)
		case "categories":
			_ = a.ListCategories()
		case "collection":
			_ = a.ToggleCollection(args)
		case "collections":
			_ = a.ListCollections()
		case "price":
			_ = a.SetPrice(args)
		case "saleprice":
			_ = a.SetSalePrice(args)
		case "flag":
			_ = a.ToggleFlag(args)
		case "add":
			_ = a.AddAssets(args)
		case "remove", "rm":
			_ = a.RemoveAsset(args)
		case "upload":
			_ = a.Upload(ctx)
		case "status", "st":
			_ = a.Status()
		case "show":
			_ = a.Show()
		case "submit":
			_ = a.Submit(ctx)
		case "new":
			_ = a.New()
		case "refresh":
			_ = a.Refresh(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
