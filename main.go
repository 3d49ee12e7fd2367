package main

import "github.com/netresearch/ldap-rest-auth/cmd"

func main() {
	cmd.Execute()
}
