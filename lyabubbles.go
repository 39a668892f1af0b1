/*package main contains code for constraining the sizes and positions of
ionized bubbles around high-redshift galaxies from their Lyman-alpha
transmission.*/
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/IvanNikolic21/Lyman-alpha-bubbles/cmd"
	"github.com/IvanNikolic21/Lyman-alpha-bubbles/version"
)

var helpStrings = map[string]string{
	"mock": `The mock mode bootstraps a synthetic galaxy catalog: it places
galaxies around a "true" bubble of known size, observes each of them
through a random bubble field, and writes the catalog and field to
OutputDir. Run it as
lyabubble mock ____.config [____.mock.config]`,
	"grid": `The grid mode maps the Monte Carlo likelihood of a galaxy
catalog over a grid of candidate bubble centers and radii and writes the
resulting surface to OutputDir. Run it as
lyabubble grid ____.config [____.grid.config]`,

	"config":      new(cmd.GlobalConfig).ExampleConfig(),
	"mock.config": cmd.ModeNames["mock"].ExampleConfig(),
	"grid.config": cmd.ModeNames["grid"].ExampleConfig(),
}

var modeDescriptions = `My help modes are:
lyabubble help
lyabubble help [ mock | grid ]
lyabubble help [ config | mock.config | grid.config ]

My analysis modes are:
lyabubble mock [flags] ____.config [____.mock.config]
lyabubble grid [flags] ____.config [____.grid.config]`

func main() {
	args := os.Args
	if len(args) <= 1 {
		fmt.Fprintf(
			os.Stderr, "I was not supplied with a mode.\nFor help, type "+
				"'./lyabubble help'.\n",
		)
		os.Exit(1)
	}

	if args[1] == "help" {
		switch len(args) - 2 {
		case 0:
			fmt.Println(modeDescriptions)
		case 1:
			text, ok := helpStrings[args[2]]
			if !ok {
				fmt.Printf("I don't recognize the help target '%s'\n", args[2])
			} else {
				fmt.Println(text)
			}
		default:
			fmt.Println("The help mode can only take a single argument.")
		}
		os.Exit(0)
	} else if args[1] == "version" {
		fmt.Printf("lyabubble version %s\n", version.SourceVersion)
		os.Exit(0)
	}

	mode, ok := cmd.ModeNames[args[1]]
	if !ok {
		fmt.Fprintf(
			os.Stderr, "You passed me the mode '%s', which I don't "+
				"recognize.\nFor help, type './lyabubble help'\n", args[1],
		)
		os.Exit(1)
	}

	flags := getFlags(args)
	config, ok := getConfig(args)
	_, gConfig, err := getGlobalConfig(args)
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}

	if ok {
		err = mode.ReadConfig(config)
	} else {
		err = mode.ReadConfig("")
	}
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}

	out, err := mode.Run(flags, gConfig)
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}

	for i := range out {
		fmt.Println(out[i])
	}
}

// getFlags returns the flag tokens from the command line arguments.
func getFlags(args []string) []string {
	return args[2 : len(args)-configNum(args)]
}

// getGlobalConfig returns the name of the base config file from the
// command line arguments, along with the parsed config itself.
func getGlobalConfig(args []string) (string, *cmd.GlobalConfig, error) {
	name := os.Getenv("LYABUBBLE_GLOBAL_CONFIG")
	if name != "" {
		if configNum(args) > 1 {
			return "", nil, fmt.Errorf("$LYABUBBLE_GLOBAL_CONFIG has been " +
				"set, so you may only pass a single config file as a " +
				"parameter.")
		}

		config := &cmd.GlobalConfig{}
		if err := config.ReadConfig(name); err != nil {
			return "", nil, err
		}
		return name, config, nil
	}

	switch configNum(args) {
	case 0:
		return "", nil, fmt.Errorf("No config files provided in command " +
			"line arguments.")
	case 1:
		name = args[len(args)-1]
	case 2:
		name = args[len(args)-2]
	default:
		return "", nil, fmt.Errorf("Passed too many config files as arguments.")
	}

	config := &cmd.GlobalConfig{}
	if err := config.ReadConfig(name); err != nil {
		return "", nil, err
	}
	return name, config, nil
}

// getConfig returns the name of the mode-specific config file from the
// command line arguments.
func getConfig(args []string) (string, bool) {
	if os.Getenv("LYABUBBLE_GLOBAL_CONFIG") != "" && configNum(args) == 1 {
		return args[len(args)-1], true
	} else if os.Getenv("LYABUBBLE_GLOBAL_CONFIG") == "" &&
		configNum(args) == 2 {

		return args[len(args)-1], true
	}
	return "", false
}

// configNum returns the number of configuration files at the end of the
// argument list (up to 2).
func configNum(args []string) int {
	num := 0
	for i := len(args) - 1; i >= 0; i-- {
		if isConfig(args[i]) {
			num++
		} else {
			break
		}
	}
	return num
}

// isConfig returns true if the given string is a config file name.
func isConfig(s string) bool {
	return len(s) >= 7 && s[len(s)-7:] == ".config"
}
