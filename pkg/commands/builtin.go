package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strings"
	"time"

	"cantinabot/pkg/version"
)

var processStartTime = time.Now()

const (
	praiseGIF    = "https://tenor.com/view/noni-itayuwuji-phainon-dance-honkaistarrail-phainon-chibi-gif-318861480241854034"
	insultGIF    = "https://tenor.com/view/phainon-noni-itayuwuji-phainon-honkaistarrail-phainon-chibi-cry-gif-14390704413906512030"
	wiseWordsGIF = "https://tenor.com/view/phainon-kitty-cute-dance-cat-gif-7410832384021952970"
)

var praiseResponses = []string{
	"yayyy thank you >w< :3c",
	"yippiee yippiee yippiee ฅ^•ﻌ•^ฅ",
	"aww you're too nice /ᐠ ˵> ⩊ <˵マ",
	"hehe thamks ≽(•⩊ •マ≼",
}

var insultResponses = []string{
	"sowwyyy /ᐠ ◞ ᆺ ◟マ",
	"oh so that's how it is /ᐠ - ˕ -マ ᶻ 𝗓 𐰁",
	"i'm trying my best /ᐠ ･᷄ ︵ ･᷅マ",
	"i-i'll do better /ᐠ •̥ ﻌ •̥ ᐟマ",
	"FRICK YOU",
}

var wiseSayings = []string{
	"You cannot change what you refuse to confront.",
	"Sometimes good things fall apart so better things can fall together.",
	"Don't think of cost. Think of value.",
	"No matter how many mistakes you make or how slow you progress, you are still way ahead of everyone who isn't trying.",
	"The only way to do great work is to love what you do.",
	"Success is not final, failure is not fatal: It is the courage to continue that counts.",
	"Making one person smile can change the world – maybe not the whole world, but their world.",
	"The fool doth think he is wise, but the wise man knows himself to be a fool.",
	"Even a broken clock is right twice a day.",
	"A journey of a thousand miles begins with a single step.",
	"Even a humble soup can warm the coldest evening.",
	"A shared meal tastes twice as good.",
	"It is better to remain silent at the risk of being thought a fool, than to talk and remove all doubt of it.",
	"Patience is the secret ingredient in every great stew.",
	"The only true wisdom is in knowing you know nothing.",
	"Count your age by friends, not years. Count your life by smiles, not tears.",
	"May you live every day of your life.",
	"meow meow meow meow",
	"lucky message!",
	"Any fool can know. The point is to understand.",
	"The secret of life, though, is to fall seven times and to get up eight times.",
	"The unexamined life is not worth living.",
	"Yesterday I was clever, so I wanted to change the world. Today I am wise, so I am changing myself",
	"The best way out is always through.",
	"Happiness depends upon ourselves.",
	"We are what we repeatedly do. Excellence, then, is not an act, but a habit.",
	"The mind is everything. What you think you become.",
	"yea!",
	"frick you",
	"Let no man pull you so low as to hate him.",
	"Do what you can, with what you have, where you are.",
	"You miss 100% of the shots you don't take.",
	"The greatest wealth is to live content with little.",
	"The best way to predict the future is to create it.",
	"please help me theyre keeping me captive in this discord bot /ᐠ •̥ ﻌ •̥ ᐟマ",
	"i am suffering /ᐠ •̥ ﻌ •̥ ᐟマ",
	"The root of suffering is attachment.",
	"Happiness is not something ready made. It comes from your own actions.",
	"In the middle of difficulty lies opportunity.",
	"Life is really simple, but we insist on making it complicated.",
	"The only limit to our realization of tomorrow will be our doubts of today.",
	"Do not dwell in the past, do not dream of the future, concentrate the mind on the present moment.",
	"The best revenge is massive success.",
	"The only thing necessary for the triumph of evil is for good men to do nothing.",
	"Early to bed and early to rise makes a man healthy, wealthy, and wise.",
	"An unexamined life is not worth living.",
	"To be yourself in a world that is constantly trying to make you something else is the greatest accomplishment.",
	"If you tell the truth, you don't have to remember anything.",
	"We accept the love we think we deserve.",
	"It is better to be hated for what you are than to be loved for what you are not.",
	"I have not failed. I've just found 10,000 ways that won't work.",
	"Be the change that you wish to see in the world.",
	"In three words I can sum up everything I've learned about life: it goes on.",
	"Live as if you were to die tomorrow. Learn as if you were to live forever.",
	"That which does not kill us makes us stronger.",
	"What we think, we become.",
	"All that we are is the result of what we have thought.",
}

// RegisterBuiltinCommands registers the commands that need no menu
// workflow: help, status, and the novelty commands.
func RegisterBuiltinCommands(registry *Registry) error {
	builtins := []*Command{
		{
			Name:        "help",
			Description: "Show available commands",
			Usage:       "/help [command]",
			Handler:     helpHandler(registry),
		},
		{
			Name:        "status",
			Description: "Show bot status",
			Usage:       "/status",
			Handler:     statusHandler,
		},
		{
			Name:        "hello-world",
			Description: "A simple test command.",
			Usage:       "/hello-world",
			Handler:     staticHandler("Hello, world!"),
		},
		{
			Name:        "hello",
			Description: "Say hello",
			Usage:       "!hello",
			Handler:     helloHandler,
		},
		{
			Name:        "ping",
			Description: "Check the bot is alive",
			Usage:       "!ping",
			Handler:     staticHandler("Pong!"),
		},
		{
			Name:        "praise",
			Description: "Good job cantina-chan!",
			Usage:       "/praise",
			Handler:     gifHandler(praiseResponses, praiseGIF),
		},
		{
			Name:        "insult",
			Description: "why would you use this :<",
			Usage:       "/insult",
			Handler:     gifHandler(insultResponses, insultGIF),
		},
		{
			Name:        "wise-words",
			Description: "Share a bit of cantina wisdom",
			Usage:       "/wise-words",
			Handler:     gifHandler(wiseSayings, wiseWordsGIF),
		},
	}

	for _, cmd := range builtins {
		if err := registry.Register(cmd); err != nil {
			return fmt.Errorf("failed to register %s: %w", cmd.Name, err)
		}
	}

	return nil
}

func staticHandler(content string) CommandHandler {
	return func(ctx context.Context, req CommandRequest) (CommandResponse, error) {
		return CommandResponse{Content: content}, nil
	}
}

func helloHandler(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	name := req.Username
	if name == "" {
		name = "there"
	}
	return CommandResponse{Content: fmt.Sprintf("Hello %s! 👋", name)}, nil
}

// gifHandler picks a random line and pairs it with the command's GIF.
func gifHandler(responses []string, gifURL string) CommandHandler {
	return func(ctx context.Context, req CommandRequest) (CommandResponse, error) {
		return CommandResponse{
			Content: responses[rand.IntN(len(responses))],
			GIFURL:  gifURL,
		}, nil
	}
}

// helpHandler creates a handler for the /help command.
func helpHandler(registry *Registry) CommandHandler {
	return func(ctx context.Context, req CommandRequest) (CommandResponse, error) {
		if req.Args != "" {
			parts := strings.Fields(req.Args)
			if cmd, exists := registry.Get(parts[0]); exists {
				content := fmt.Sprintf("**/%s**\n\n%s\n\n**Usage:** %s",
					cmd.Name, cmd.Description, cmd.Usage)
				return CommandResponse{Content: content}, nil
			}
		}

		cmds := registry.List()
		if len(cmds) == 0 {
			return CommandResponse{Content: "No commands available."}, nil
		}

		var sb strings.Builder
		sb.WriteString("🍲 **Available Commands**\n\n")
		for _, cmd := range cmds {
			sb.WriteString(fmt.Sprintf("**/%s** - %s\n", cmd.Name, cmd.Description))
		}
		sb.WriteString("\nUse `/help [command]` for detailed information.")

		return CommandResponse{Content: sb.String()}, nil
	}
}

// statusHandler handles the /status command.
func statusHandler(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	content := fmt.Sprintf(`✅ **CantinaBot Status**

Channel: %s
Status: 🟢 Online
Version: %s
OS: %s/%s
Go: %s
Uptime: %s
Memory: %.2f MB`,
		req.Channel,
		version.GetVersion(),
		runtime.GOOS,
		runtime.GOARCH,
		runtime.Version(),
		time.Since(processStartTime).Round(time.Second),
		float64(mem.Alloc)/1024.0/1024.0,
	)

	return CommandResponse{Content: content}, nil
}
