package main

import "fmt"

// control GO-1
func greet(name string) string {
	return fmt.Sprintf("hello %s", name)
}

func main() {
	msg := greet("world")
	// control GO-2
	fmt.Println(msg)
}
