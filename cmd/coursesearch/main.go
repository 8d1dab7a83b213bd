package main

import "coursesearch/internal/cli"

func main() {
	cli.Execute()
}
