package registry

// catalogEntry is metadata for one item of the local catalog. File contents
// are read from the workspace at lookup time.
type catalogEntry struct {
	Type                 ItemType
	Dependencies         []string
	RegistryDependencies []string
	Files                []File
}

var (
	cva          = "class-variance-authority"
	baseArtifact = []string{"react", "clsx", "tailwind-merge", "zod", "@copilotkit/react-core"}
)

func deps(extra ...string) []string {
	out := make([]string, 0, len(baseArtifact)+len(extra))
	out = append(out, baseArtifact...)
	return append(out, extra...)
}

func uiItem(name string, dependencies ...string) catalogEntry {
	return catalogEntry{
		Type:         TypeUI,
		Dependencies: dependencies,
		Files:        []File{{Path: "hax/components/ui/" + name + ".tsx", Type: FileComponent}},
	}
}

// artifactFiles lists the five files every artifact ships with.
func artifactFiles(name, actionFile string) []File {
	dir := "hax/artifacts/" + name + "/"
	return []File{
		{Path: dir + name + ".tsx", Type: FileComponent},
		{Path: dir + actionFile, Type: FileHook},
		{Path: dir + "types.ts", Type: FileTypes},
		{Path: dir + "index.ts", Type: FileIndex},
		{Path: dir + "description.ts", Type: FileDescription},
	}
}

func artifactItem(name string, registryDeps []string, extra ...string) catalogEntry {
	action := "action.ts"
	if name == "mindmap" {
		action = "action.tsx"
	}
	return catalogEntry{
		Type:                 TypeArtifacts,
		Dependencies:         deps(extra...),
		RegistryDependencies: registryDeps,
		Files:                artifactFiles(name, action),
	}
}

func composerFiles(name string, files ...File) []File {
	dir := "hax/composer/" + name + "/"
	out := make([]File, len(files))
	for i, f := range files {
		out[i] = File{Path: dir + f.Path, Type: f.Type}
	}
	return out
}

var uiCatalog = map[string]catalogEntry{
	"button": uiItem("button", "@radix-ui/react-slot", cva),
	"input":  uiItem("input", cva),
	"select": uiItem("select", "@radix-ui/react-select", cva, "lucide-react"),
	"card":   uiItem("card", cva),
	"table":  uiItem("table", cva),
	"generated-ui-wrapper": {
		Type:  TypeUI,
		Files: []File{{Path: "hax/components/generated-ui-wrapper.tsx", Type: FileComponent}},
	},
	"badge":           uiItem("badge", cva),
	"dialog":          uiItem("dialog", cva, "@radix-ui/react-dialog"),
	"label":           uiItem("label", cva, "@radix-ui/react-label"),
	"dropdown-menu":   uiItem("dropdown-menu", "@radix-ui/react-dropdown-menu", cva),
	"loading-spinner": uiItem("loading-spinner"),
	"tabs":            uiItem("tabs", "@radix-ui/react-tabs", cva),
	"drawer":          uiItem("drawer", "@radix-ui/react-dialog", cva),
	"progress":        uiItem("progress", "@radix-ui/react-progress", "clsx", "tailwind-merge"),
}

var artifactCatalog = map[string]catalogEntry{
	"form":               artifactItem("form", []string{"button", "input", "select"}),
	"timeline":           artifactItem("timeline", nil, "date-fns", "lucide-react"),
	"mindmap":            artifactItem("mindmap", nil, "@xyflow/react", "elkjs"),
	"code-editor":        artifactItem("code-editor", []string{"select", "generated-ui-wrapper"}, "@monaco-editor/react", "monaco-editor"),
	"details":            artifactItem("details", []string{"card", "table"}, "lucide-react"),
	"data-visualizer":    artifactItem("data-visualizer", nil, "react-chartjs-2", "chart.js"),
	"source-attribution": artifactItem("source-attribution", []string{"badge"}, "lucide-react"),
	"rationale":          artifactItem("rationale", []string{"badge", "button", "progress"}, "lucide-react", cva),
}

var composerCatalog = map[string]catalogEntry{
	"rules-context": {
		Type:                 TypeComposer,
		Dependencies:         deps(),
		RegistryDependencies: []string{"dialog", "button", "input", "badge", "card", "label"},
		Files: composerFiles("rules-context",
			File{Path: "rules-context.tsx", Type: FileComponent},
			File{Path: "rules.tsx", Type: FileComponent},
			File{Path: "localStorage.ts", Type: FileHook},
			File{Path: "types.ts", Type: FileTypes},
			File{Path: "index.ts", Type: FileIndex},
		),
	},
	"file-upload": {
		Type:         TypeComposer,
		Dependencies: deps(),
		Files: composerFiles("file-upload",
			File{Path: "file-upload.constant.ts", Type: FileConstants},
			File{Path: "description.ts", Type: FileDescription},
			File{Path: "action.tsx", Type: FileHook},
			File{Path: "drag-drop-zone.tsx", Type: FileComponent},
			File{Path: "info-icon.tsx", Type: FileComponent},
			File{Path: "types.ts", Type: FileTypes},
			File{Path: "index.ts", Type: FileIndex},
		),
	},
	"chat-commands": {
		Type:                 TypeComposer,
		Dependencies:         deps("@copilotkit/runtime"),
		RegistryDependencies: []string{"input", "loading-spinner", "dropdown-menu"},
		Files: composerFiles("chat-commands",
			File{Path: "command-hints.tsx", Type: FileComponent},
			File{Path: "command-suggestions.tsx", Type: FileComponent},
			File{Path: "context-items-list.tsx", Type: FileComponent},
			File{Path: "file-picker-input.tsx", Type: FileComponent},
			File{Path: "commands/agent-delegation-command.tsx", Type: FileComponent},
			File{Path: "commands/context-command.tsx", Type: FileComponent},
			File{Path: "commands/tool-call-command.tsx", Type: FileComponent},
			File{Path: "state/command-registry.tsx", Type: FileComponent},
			File{Path: "file-upload.constant.ts", Type: FileConstants},
			File{Path: "types.ts", Type: FileTypes},
			File{Path: "middleware/types.ts", Type: FileTypes},
			File{Path: "commands/index.ts", Type: FileIndex},
			File{Path: "middleware/index.ts", Type: FileIndex},
			File{Path: "hooks/useChatCommands.ts", Type: FileHook},
			File{Path: "hooks/useDragAndDrop.ts", Type: FileHook},
			File{Path: "hooks/useLocalContext.ts", Type: FileHook},
			File{Path: "hooks/useSuggestions.ts", Type: FileHook},
			File{Path: "hooks/useTools.ts", Type: FileHook},
			File{Path: "middleware/agent-delegation.ts", Type: FileLib},
			File{Path: "middleware/chat-middleware-adapter.ts", Type: FileLib},
			File{Path: "middleware/middleware-chain.ts", Type: FileLib},
			File{Path: "middleware/tool-call.ts", Type: FileLib},
		),
	},
}

var adapterCatalog = map[string]catalogEntry{
	"base-adapter": {
		Type:         TypeAdapter,
		Dependencies: []string{"@copilotkit/shared", "@copilotkit/runtime", "@copilotkit/runtime-client-gql"},
		Files: []File{
			{Path: "hax/adapter/base-adapter.ts", Type: FileComponent},
			{Path: "hax/adapter/agent.type.ts", Type: FileTypes},
			{Path: "hax/adapter/logger.ts", Type: FileLib},
			{Path: "hax/adapter/index.ts", Type: FileIndex},
		},
	},
}

func catalogFor(cat Category) map[string]catalogEntry {
	switch cat {
	case CategoryArtifacts:
		return artifactCatalog
	case CategoryComposer:
		return composerCatalog
	case CategoryAdapter:
		return adapterCatalog
	default:
		return uiCatalog
	}
}
