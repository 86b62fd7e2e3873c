package xtool

const treeFramed = `
xwininfo: Window id: 0x1c0000e (has no name)

  Root window id: 0x1e3 (the root window) (has no name)
  Parent window id: 0x1e3 (the root window) (has no name)
     1 child:
     0x3200007 "notes.txt - Text Editor": ("gedit" "Gedit")  1280x720+0+37  +10+47
`

const treeNoTitleMatch = `
xwininfo: Window id: 0x1c00020 (has no name)

  Root window id: 0x1e3 (the root window) (has no name)
  Parent window id: 0x1e3 (the root window) (has no name)
     2 children:
     0x4000003 (has no name): ()  1x1+-1+-1  +9+36
     0x4000001 "Other": ("x" "X")  800x600+0+0  +10+37
`

const treeNoChildren = `
xwininfo: Window id: 0x1c00030 "Frameless"

  Root window id: 0x1e3 (the root window) (has no name)
  Parent window id: 0x1e3 (the root window) (has no name)
     0 children.
`

const clientList = "_NET_CLIENT_LIST(WINDOW): window id # 0x1e00007, 0x2a0000a, 0x3200007\n"

const propsPlain = `_NET_WM_NAME(UTF8_STRING) = "Terminal"
_NO_TITLE_BAR_ORIGINAL_STATE:  not found.
`

const propsMarked = `_NET_WM_NAME(UTF8_STRING) = "Terminal"
_NO_TITLE_BAR_ORIGINAL_STATE(CARDINAL) = 1
`

const propsEscaped = `_NET_WM_NAME(UTF8_STRING) = "say \"hi\" C:\\tmp"
_NO_TITLE_BAR_ORIGINAL_STATE:  not found.
`
