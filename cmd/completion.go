package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_pwvault() {
    local cur prev words cword
    _init_completion || return

    local commands="init ls show add edit rm dup search passwd totp diff merge status recent keyring help completion"
    local record_flags="--group --title --user --url --notes --totp --ask-password --generate"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        ls)
            if [[ "$prev" == "--sort" ]]; then
                COMPREPLY=($(compgen -W "title user modified created group" -- "$cur"))
            elif [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--sort --group" -- "$cur"))
            else
                _filedir psafe3
            fi
            ;;
        show)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--password" -- "$cur"))
            else
                _filedir psafe3
            fi
            ;;
        add|edit)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "$record_flags" -- "$cur"))
            else
                _filedir psafe3
            fi
            ;;
        diff)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--passwords" -- "$cur"))
            else
                _filedir psafe3
            fi
            ;;
        merge)
            if [[ "$prev" == "--strategy" ]]; then
                COMPREPLY=($(compgen -W "newest local other" -- "$cur"))
            elif [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--strategy --dry-run" -- "$cur"))
            else
                _filedir psafe3
            fi
            ;;
        recent)
            COMPREPLY=($(compgen -W "--prune" -- "$cur"))
            ;;
        keyring)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            else
                _filedir psafe3
            fi
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
        *)
            _filedir psafe3
            ;;
    esac
}

complete -F _pwvault pwvault
`

const zshCompletion = `#compdef pwvault

_pwvault() {
    local -a commands
    commands=(
        'init:Create a new vault file'
        'ls:List records'
        'show:Show one record'
        'add:Add a record'
        'edit:Change fields of a record'
        'rm:Remove records'
        'dup:Duplicate a record'
        'search:Find records by text'
        'passwd:Change vault passphrase'
        'totp:Print a two-factor code'
        'diff:Compare with another vault file'
        'merge:Merge another vault file'
        'status:Show vault details without the passphrase'
        'recent:List recently opened vaults'
        'keyring:Manage passphrase in OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    local -a record_flags
    record_flags=(
        '--group[Group path]:group:'
        '--title[Record title]:title:'
        '--user[User name]:user:'
        '--url[URL]:url:'
        '--notes[Notes]:notes:'
        '--totp[Base32 two-factor secret]:secret:'
        '--ask-password[Prompt for the password]'
        '--generate[Generate a random password]'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'pwvault commands' commands
            ;;
        args)
            case "${words[2]}" in
                ls)
                    _arguments \
                        '--sort[Sort order]:field:(title user modified created group)' \
                        '--group[Only this group]:group:' \
                        '*:vault:_files'
                    ;;
                show)
                    _arguments '--password[Show the password]' '*:vault:_files'
                    ;;
                add|edit)
                    _arguments $record_flags '*:vault:_files'
                    ;;
                diff)
                    _arguments '--passwords[Show changed passwords]' '*:vault:_files'
                    ;;
                merge)
                    _arguments \
                        '--strategy[Conflict strategy]:strategy:(newest local other)' \
                        '--dry-run[Do not save]' \
                        '*:vault:_files'
                    ;;
                recent)
                    _arguments '--prune[Drop missing files]'
                    ;;
                keyring)
                    _arguments '1:subcommand:(save delete status)' '*:vault:_files'
                    ;;
                help)
                    _describe -t commands 'pwvault commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
                *)
                    _files
                    ;;
            esac
            ;;
    esac
}

_pwvault "$@"
`

const fishCompletion = `# pwvault fish completions

set -l commands init ls show add edit rm dup search passwd totp diff merge status recent keyring help completion

# Commands
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a init -d 'Create a new vault file'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a ls -d 'List records'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a show -d 'Show one record'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a add -d 'Add a record'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a edit -d 'Change fields of a record'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a rm -d 'Remove records'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a dup -d 'Duplicate a record'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a search -d 'Find records by text'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a passwd -d 'Change vault passphrase'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a totp -d 'Print a two-factor code'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a diff -d 'Compare with another vault'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a merge -d 'Merge another vault'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a status -d 'Show vault details'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a recent -d 'List recent vaults'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a keyring -d 'Manage passphrase in OS keyring'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a help -d 'Show help'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -f -a completion -d 'Generate completions'

# ls flags
complete -c pwvault -n "__fish_seen_subcommand_from ls" -l sort -x -a "title user modified created group" -d 'Sort order'
complete -c pwvault -n "__fish_seen_subcommand_from ls" -l group -x -d 'Only this group'

# show and diff flags
complete -c pwvault -n "__fish_seen_subcommand_from show" -l password -d 'Show the password'
complete -c pwvault -n "__fish_seen_subcommand_from diff" -l passwords -d 'Show changed passwords'

# add and edit flags
complete -c pwvault -n "__fish_seen_subcommand_from add edit" -l group -x -d 'Group path'
complete -c pwvault -n "__fish_seen_subcommand_from add edit" -l title -x -d 'Record title'
complete -c pwvault -n "__fish_seen_subcommand_from add edit" -l user -x -d 'User name'
complete -c pwvault -n "__fish_seen_subcommand_from add edit" -l url -x -d 'URL'
complete -c pwvault -n "__fish_seen_subcommand_from add edit" -l notes -x -d 'Notes'
complete -c pwvault -n "__fish_seen_subcommand_from add edit" -l totp -x -d 'Base32 two-factor secret'
complete -c pwvault -n "__fish_seen_subcommand_from add edit" -l ask-password -d 'Prompt for the password'
complete -c pwvault -n "__fish_seen_subcommand_from add edit" -l generate -d 'Generate a random password'

# merge flags
complete -c pwvault -n "__fish_seen_subcommand_from merge" -l strategy -x -a "newest local other" -d 'Conflict strategy'
complete -c pwvault -n "__fish_seen_subcommand_from merge" -l dry-run -d 'Do not save'

# recent flags
complete -c pwvault -n "__fish_seen_subcommand_from recent" -l prune -d 'Drop missing files'

# keyring subcommands
complete -c pwvault -n "__fish_seen_subcommand_from keyring; and not __fish_seen_subcommand_from save delete status" -f -a "save delete status"

# help completions
complete -c pwvault -n "__fish_seen_subcommand_from help" -f -a "$commands"

# completion completions
complete -c pwvault -n "__fish_seen_subcommand_from completion" -f -a "bash zsh fish"
`
