// Command pbm-portal runs the PBM portal API and its operational tasks.
//
// Usage:
//
//	pbm-portal serve
//	pbm-portal migrate
//	pbm-portal seed --users users.csv --pharmacies farmacias.txt --medications medicamentos.txt
//	pbm-portal apply-indexes
package main

func main() {
	Execute()
}
