// cmd/bricolagectl/main.go
package main

import "github.com/javajoker/bricolage-backend/cmd/bricolagectl/commands"

func main() {
	commands.Execute()
}
