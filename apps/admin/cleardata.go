package main

// clearData wipes every application table. Guarded by the -yes flag; there
// is no undo.
func (cli *commandLine) clearData() error {
	_, err := cli.db.Exec(`TRUNCATE "user", class, inventory`)
	return err
}
