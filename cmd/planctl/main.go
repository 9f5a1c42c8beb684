// Command planctl validates and imports game plan and sufficiency
// workbooks from the command line, against PostgreSQL or a YAML seed.
package main

func main() {
	execute()
}
