package main

import (
	"context"

	"github.com/Buffnet/Zoho-Books/cmd/scraper/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
