package main

import "tagsheet/internal/app"

func main() {
	app.Main()
}
