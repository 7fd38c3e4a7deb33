/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/cellhub/admin/cmd"

func main() {
	cmd.Execute()
}
