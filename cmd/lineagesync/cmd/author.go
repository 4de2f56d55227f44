package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oneconcern/lineagesync/pkg/config"
)

var authorCmd = &cobra.Command{
	Use:   "author",
	Short: "Commands to manage the author of save points",
	Args:  cobra.NoArgs,
	Run:   showAuthor,
}

var authorShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the author of save points",
	Args:  cobra.NoArgs,
	Run:   showAuthor,
}

func showAuthor(cmd *cobra.Command, args []string) {
	author, err := settings.EnsureAuthor()
	if err != nil {
		wrapFatalWithCodef(1, "%v: use lineagesync author set --name <name> --email <email>", err)
		return
	}
	infoLogger.Printf("%s <%s>", author.Name, author.Email)
}

var authorSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the author of save points",
	Long:  "Set the author of save points in the settings file: " + config.Location(),
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if lineageFlags.author.name == "" || lineageFlags.author.email == "" {
			wrapFatalln("cannot set author", errAuthorMissing)
			return
		}
		s := settings
		s.Author = config.Author{Name: lineageFlags.author.name, Email: lineageFlags.author.email}
		location := config.Location()
		if err := config.Save(s, location); err != nil {
			wrapFatalln("cannot save settings", err)
			return
		}
		infoLogger.Printf("author saved to %s", location)
	},
}

func init() {
	addAuthorFlags(authorSetCmd)
	authorCmd.AddCommand(authorShowCmd, authorSetCmd)
	rootCmd.AddCommand(authorCmd)
}
