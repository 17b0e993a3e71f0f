package main

import "amtrak-price-tracker/commands"

func main() {
	commands.Execute()
}
