package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"audiofp/utils"
)

func main() {
	_ = utils.CreateFolder("tmp")
	_ = utils.CreateFolder(songsDir)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	_ = godotenv.Load()

	logger := utils.NewLogger()
	ctx := context.Background()

	switch os.Args[1] {
	case "find":
		if len(os.Args) < 3 {
			fmt.Println("usage: audiofp find <path_to_audio_file>")
			os.Exit(1)
		}
		find(ctx, logger, os.Args[2])

	case "download":
		if len(os.Args) < 3 {
			fmt.Println("usage: audiofp download <url>")
			os.Exit(1)
		}
		downloadURL(logger, os.Args[2])

	case "serve":
		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		protocol := serveCmd.String("proto", "http", "protocol to use (http or https)")
		port := serveCmd.String("p", "5000", "port to use")
		serveCmd.Parse(os.Args[2:])
		serve(logger, *protocol, *port)

	case "erase":
		dbOnly := true
		all := false

		if len(os.Args) > 2 {
			switch os.Args[2] {
			case "db":
				dbOnly = true
			case "all":
				dbOnly = false
				all = true
			default:
				fmt.Println("usage: audiofp erase [db | all]")
				os.Exit(1)
			}
		}

		erase(logger, songsDir, dbOnly, all)

	case "save":
		saveCmd := flag.NewFlagSet("save", flag.ExitOnError)
		force := saveCmd.Bool("force", false, "index file even without complete metadata")
		saveCmd.BoolVar(force, "f", false, "index file even without complete metadata (shorthand)")
		saveCmd.Parse(os.Args[2:])
		if saveCmd.NArg() < 1 {
			fmt.Println("usage: audiofp save [-f|--force] <path_to_file_or_dir>")
			os.Exit(1)
		}
		save(ctx, logger, saveCmd.Arg(0), *force)

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("usage: audiofp <command>")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  find     <audio_file>            match a file against the database")
	fmt.Println("  save     [-f] <file_or_dir>      index audio file(s) into the database")
	fmt.Println("  download <url>                   accept a track for later ingest")
	fmt.Println("  erase    [db | all]              clear database (and optionally audio files)")
	fmt.Println("  serve    [-proto http] [-p 5000] start the web server")
}
