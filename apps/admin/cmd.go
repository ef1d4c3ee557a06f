package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/ebdapp/ebd/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addsecretary -username USERNAME -email EMAIL [-name NAME] - create or promote a secretary account")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  migrate COMMAND [args] - run a migration command (up, down, status, ...)")
	fmt.Println("  cleardata -yes - wipe all classes, users and inventory")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addSecretaryCmd := flag.NewFlagSet("addsecretary", flag.ExitOnError)
	addSecretaryUname := addSecretaryCmd.String("username", "", "The account's username. The password will be prompted next.")
	addSecretaryEmail := addSecretaryCmd.String("email", "", "The account's email address.")
	addSecretaryName := addSecretaryCmd.String("name", "", "The person's full name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	clearDataCmd := flag.NewFlagSet("cleardata", flag.ExitOnError)
	clearDataYes := clearDataCmd.Bool("yes", false, "Confirm wiping all application data.")

	switch args[1] {
	case "addsecretary":
		if err := addSecretaryCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSecretaryUname == "" || *addSecretaryEmail == "" {
			addSecretaryCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addSecretaryCmd.Usage()
			return errHelp
		}
		return cli.addSecretary(*addSecretaryUname, *addSecretaryEmail, *addSecretaryName, string(pwd))
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, string(pwd))
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "cleardata":
		if err := clearDataCmd.Parse(args[2:]); err != nil {
			return err
		}
		if !*clearDataYes {
			clearDataCmd.Usage()
			return errHelp
		}
		return cli.clearData()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() ([]byte, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	return pwd, err
}
