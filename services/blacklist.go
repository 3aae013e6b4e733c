package services

import (
	"bufio"
	"os"
	"strings"
)

// PasswordBlacklist holds passwords that may not be chosen.
type PasswordBlacklist map[string]bool

// LoadBlackList reads one password per line from filePath.
func LoadBlackList(filePath string) (PasswordBlacklist, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	blackList := PasswordBlacklist{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			blackList[strings.ToLower(line)] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return blackList, nil
}

func (b PasswordBlacklist) Contains(password string) bool {
	return b[strings.ToLower(password)]
}
