// Command pageiter seeds, counts and walks item tables page by page.
package main

func main() {
	execute()
}
