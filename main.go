package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harrisonrobin/sotasks/pkg/asana"
	"github.com/harrisonrobin/sotasks/pkg/auth"
	"github.com/harrisonrobin/sotasks/pkg/config"
	"github.com/harrisonrobin/sotasks/pkg/gtasks"
	"github.com/harrisonrobin/sotasks/pkg/index"
	"github.com/harrisonrobin/sotasks/pkg/mirror"
	"github.com/harrisonrobin/sotasks/pkg/taskjson"
)

func main() {
	// 1. Parse Flags
	projectID := flag.String("project", "", "Asana project id (overrides config and ASANA_PROJECT_ID)")
	taskList := flag.String("tasklist", "", "Google Tasks list name to mirror into (overrides config)")
	setProject := flag.String("set-project", "", "Set the default Asana project id")
	setTaskList := flag.String("set-tasklist", "", "Set the default Google Tasks list name")
	doAuth := flag.Bool("auth", false, "Authenticate with Google Tasks")
	doList := flag.Bool("list", false, "Print the project's Asana tasks as JSON lines")
	doCreate := flag.Bool("create", false, "Create the JSON-line tasks read from stdin in Asana")
	doMirror := flag.Bool("mirror", false, "Mirror the Asana project into Google Tasks")
	prune := flag.Bool("prune", false, "With -mirror, delete Google tasks whose Asana task is gone")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// 2. Handle Set Defaults
	if *setProject != "" || *setTaskList != "" {
		if *setProject != "" {
			cfg.ProjectID = *setProject
		}
		if *setTaskList != "" {
			cfg.TaskList = *setTaskList
		}
		if err := config.Save(cfg); err != nil {
			log.Fatalf("Error saving config: %v", err)
		}
		fmt.Printf("Defaults set to project %s, task list %s\n", cfg.ProjectID, cfg.TaskList)
		return
	}

	// 3. Flags win over config and environment
	if *projectID != "" {
		cfg.ProjectID = *projectID
	}
	if *taskList != "" {
		cfg.TaskList = *taskList
	}

	ctx := context.Background()

	// 4. Handle Google Authentication
	if *doAuth {
		if err := auth.RemoveToken(); err != nil {
			log.Fatalf("%v. Please delete it manually", err)
		}
		if _, err := auth.ClientOptions(ctx); err != nil {
			log.Fatalf("Authentication failed: %v", err)
		}
		log.Printf("Authentication successful! Token saved to %s", auth.TokenFile)
		return
	}

	if !*doList && !*doCreate && !*doMirror {
		flag.Usage()
		os.Exit(2)
	}
	if cfg.ProjectID == "" {
		log.Fatalf("No Asana project configured. Use -project, -set-project or %s", config.EnvProjectID)
	}

	client, err := asana.NewClient(ctx, cfg.AccessToken, cfg.ProjectID)
	if err != nil {
		log.Fatalf("Error creating Asana client: %v", err)
	}
	log.Printf("Connected to Asana as %s", client.User().Name)

	switch {
	case *doList:
		tasks, err := client.ImportTasks(ctx)
		if err != nil {
			log.Fatalf("Error importing tasks: %v", err)
		}
		if err := taskjson.WriteTasks(os.Stdout, tasks); err != nil {
			log.Fatalf("Error writing tasks: %v", err)
		}

	case *doCreate:
		tasks, err := taskjson.ParseTasks(os.Stdin)
		if err != nil {
			log.Fatalf("Error parsing tasks from stdin: %v", err)
		}
		err = client.Create(ctx, tasks)
		for _, t := range tasks {
			if gid, ok := t.Identifier(client); ok {
				fmt.Printf("%s\t%s\n", gid, t.Name)
			}
		}
		if err != nil {
			log.Fatalf("Error creating tasks: %v", err)
		}

	case *doMirror:
		opts, err := auth.ClientOptions(ctx)
		if err != nil {
			log.Fatalf("Error authenticating with Google: %v", err)
		}
		gClient, err := gtasks.NewClient(ctx, cfg.TaskList, opts...)
		if err != nil {
			log.Fatalf("Error creating Google Tasks client: %v", err)
		}
		idx, err := index.NewMirrorIndex()
		if err != nil {
			log.Fatalf("Error opening mirror index: %v", err)
		}

		res, runErr := mirror.Run(ctx, client, gClient, idx, mirror.Options{Prune: *prune})
		// Save whatever was mirrored, even after a failure.
		if err := idx.Save(); err != nil {
			log.Printf("Warning: failed to save mirror index: %v", err)
		}
		if runErr != nil {
			log.Fatalf("Error mirroring tasks: %v", runErr)
		}
		log.Printf("Mirrored into %s: %d created, %d updated, %d deleted", cfg.TaskList, res.Created, res.Updated, res.Deleted)
	}
}
