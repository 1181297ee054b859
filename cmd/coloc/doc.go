// Command coloc runs colocalization and enrichment analyses over directories
// of multi-channel microscopy images.
//
//	coloc config init            write a sample configuration
//	coloc match [dir]            group channel files into fields of view
//	coloc organize --dest DIR    copy files into per-channel directories
//	coloc analyze [dir]          analyze every field and write reports
//	coloc runs                   list runs stored in the results database
//	coloc version                print build information
package main
